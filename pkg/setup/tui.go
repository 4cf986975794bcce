package setup

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/tarabotics/teleop/pkg/robot"
)

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// recordRange runs the interactive range-of-motion recorder: a live
// table of current/min/max positions per joint that updates while the
// operator moves the limp arm through its travel.
func recordRange(motors []robot.MotorName, servoMap map[int]*feetech.Servo) (robot.Calibration, error) {
	fmt.Println("Move each joint to its minimum AND maximum positions.")
	fmt.Println("Explore the full range of motion, then press Enter.")
	fmt.Println()

	ctx := context.Background()
	cur := make(map[robot.MotorName]int, len(motors))
	min := make(map[robot.MotorName]int, len(motors))
	max := make(map[robot.MotorName]int, len(motors))
	for i, name := range motors {
		pos, _ := servoMap[i+1].Position(ctx)
		cur[name] = pos
		min[name] = pos
		max[name] = pos
	}

	model := rangeModel{
		motors: motors,
		servos: servoMap,
		cur:    cur,
		min:    min,
		max:    max,
	}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("range recorder: %w", err)
	}
	rm := final.(rangeModel)

	cal := make(robot.Calibration, len(motors))
	for i, name := range motors {
		cal[name] = robot.MotorCalibration{
			ID:       i + 1,
			RangeMin: rm.min[name],
			RangeMax: rm.max[name],
		}
	}
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("recorded calibration unusable: %w", err)
	}
	return cal, nil
}

type rangeModel struct {
	motors   []robot.MotorName
	servos   map[int]*feetech.Servo
	cur      map[robot.MotorName]int
	min      map[robot.MotorName]int
	max      map[robot.MotorName]int
	quitting bool
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m rangeModel) Init() tea.Cmd {
	return tick()
}

func (m rangeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for i, name := range m.motors {
			pos, err := m.servos[i+1].Position(ctx)
			if err != nil {
				continue
			}
			m.cur[name] = pos
			if pos < m.min[name] {
				m.min[name] = pos
			}
			if pos > m.max[name] {
				m.max[name] = pos
			}
		}
		return m, tick()
	}

	return m, nil
}

func (m rangeModel) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	motorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	currentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	rangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	rangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.motors))
	ranges := make([]int, 0, len(m.motors))
	for _, name := range m.motors {
		size := m.max[name] - m.min[name]
		ranges = append(ranges, size)
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", m.cur[name]),
			fmt.Sprintf("%d", m.min[name]),
			fmt.Sprintf("%d", m.max[name]),
			fmt.Sprintf("%d", size),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Motor", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case 0:
				return motorStyle
			case 1:
				return currentStyle
			case 4:
				// A joint swept through less than ~1/8 turn probably
				// wasn't exercised; flag it red.
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return rangeGoodStyle
				}
				return rangeLowStyle
			default:
				return cellStyle
			}
		})

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))
	return sb.String()
}
