package robot

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
)

// DefaultConfigFile is where both binaries look for their settings.
const DefaultConfigFile = "tara.json"

// Config holds everything a teleoperation session needs. The robot
// section is read by the host binary, the leader section by the
// client binary; network parameters are shared.
type Config struct {
	Robot   ArmConfig     `json:"robot"`
	Leader  ArmConfig     `json:"leader"`
	Network NetworkConfig `json:"network"`
	Host    HostParams    `json:"host"`
	Client  ClientParams  `json:"client"`
}

// ArmConfig holds the serial port and calibration for a single arm.
type ArmConfig struct {
	Port        string      `json:"port"`
	Calibration Calibration `json:"calibration,omitempty"`
}

// IsCalibrated returns true if the arm has calibration data.
func (a *ArmConfig) IsCalibrated() bool {
	return len(a.Calibration) > 0
}

// NetworkConfig addresses the session's two transport directions.
type NetworkConfig struct {
	// HostAddress is the robot's IP or hostname, used by the client.
	HostAddress     string `json:"host_address"`
	CommandPort     int    `json:"command_port"`     // default 6001
	ObservationPort int    `json:"observation_port"` // default 6002
}

// HostParams tunes the robot-resident loop.
type HostParams struct {
	Hz                int            `json:"hz"`                  // default 20
	WatchdogTimeoutMs int            `json:"watchdog_timeout_ms"` // default 2000
	JPEGQuality       int            `json:"jpeg_quality"`        // default 90
	Cameras           []CameraConfig `json:"cameras,omitempty"`
}

// CameraConfig names one camera channel.
type CameraConfig struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ClientParams tunes the controller-resident loop.
type ClientParams struct {
	Hz            int `json:"hz"`              // default 30
	PollTimeoutMs int `json:"poll_timeout_ms"` // default 15
}

// CommandListenAddr is the host-side bind address for inbound commands.
func (n NetworkConfig) CommandListenAddr() string {
	return ":" + strconv.Itoa(n.CommandPort)
}

// ObservationListenAddr is the host-side bind address for outbound
// observations.
func (n NetworkConfig) ObservationListenAddr() string {
	return ":" + strconv.Itoa(n.ObservationPort)
}

// CommandDialAddr is the client-side address of the host's command port.
func (n NetworkConfig) CommandDialAddr() string {
	return net.JoinHostPort(n.HostAddress, strconv.Itoa(n.CommandPort))
}

// ObservationDialAddr is the client-side address of the host's
// observation port.
func (n NetworkConfig) ObservationDialAddr() string {
	return net.JoinHostPort(n.HostAddress, strconv.Itoa(n.ObservationPort))
}

func (c *Config) applyDefaults() {
	if c.Network.CommandPort == 0 {
		c.Network.CommandPort = 6001
	}
	if c.Network.ObservationPort == 0 {
		c.Network.ObservationPort = 6002
	}
	if c.Host.Hz == 0 {
		c.Host.Hz = 20
	}
	if c.Host.WatchdogTimeoutMs == 0 {
		c.Host.WatchdogTimeoutMs = 2000
	}
	if c.Host.JPEGQuality == 0 {
		c.Host.JPEGQuality = 90
	}
	if c.Client.Hz == 0 {
		c.Client.Hz = 30
	}
	if c.Client.PollTimeoutMs == 0 {
		c.Client.PollTimeoutMs = 15
	}
}

// LoadConfig loads configuration from the default config file.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file and fills
// in defaults for anything unset.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists.
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
