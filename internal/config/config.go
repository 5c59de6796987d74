// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
	toml "github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Transport kinds for GPSTransport.
const (
	TransportSerial    = "serial"
	TransportWebsocket = "websocket"
	TransportTCP       = "tcp"
	TransportSim       = "sim"
)

// Store backends for StoreBackend.
const (
	StoreMemory = "memory"
	StoreHTTP   = "http"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string `toml:"mqtt_broker" yaml:"mqtt_broker"`
	MQTTClientIDGPS     string `toml:"mqtt_client_id_gps" yaml:"mqtt_client_id_gps"`
	MQTTClientIDConsole string `toml:"mqtt_client_id_console" yaml:"mqtt_client_id_console"`
	MQTTClientIDWeb     string `toml:"mqtt_client_id_web" yaml:"mqtt_client_id_web"`
	MQTTClientIDDisplay string `toml:"mqtt_client_id_display" yaml:"mqtt_client_id_display"`
	MQTTClientIDCtl     string `toml:"mqtt_client_id_ctl" yaml:"mqtt_client_id_ctl"`

	// Topics
	TopicGPS           string `toml:"topic_gps" yaml:"topic_gps"`
	TopicGPSPosition   string `toml:"topic_gps_position" yaml:"topic_gps_position"`
	TopicGPSVelocity   string `toml:"topic_gps_velocity" yaml:"topic_gps_velocity"`
	TopicGPSQuality    string `toml:"topic_gps_quality" yaml:"topic_gps_quality"`
	TopicGPSSatellites string `toml:"topic_gps_satellites" yaml:"topic_gps_satellites"`
	TopicGPSStatus     string `toml:"topic_gps_status" yaml:"topic_gps_status"`
	TopicGPSCommand    string `toml:"topic_gps_command" yaml:"topic_gps_command"`

	// GPS receiver
	GPSTransport       string `toml:"gps_transport" yaml:"gps_transport"`
	GPSSerialPort      string `toml:"gps_serial_port" yaml:"gps_serial_port"` // empty: discover by USB id
	GPSBaudRate        int    `toml:"gps_baud_rate" yaml:"gps_baud_rate"`
	GPSUSBVendorID     string `toml:"gps_usb_vendor_id" yaml:"gps_usb_vendor_id"`
	GPSUSBProductID    string `toml:"gps_usb_product_id" yaml:"gps_usb_product_id"`
	GPSSocketURL       string `toml:"gps_socket_url" yaml:"gps_socket_url"`
	GPSTCPAddr         string `toml:"gps_tcp_addr" yaml:"gps_tcp_addr"`
	GPSLenientChecksum bool   `toml:"gps_lenient_checksum" yaml:"gps_lenient_checksum"`
	GPSSpeedWindow     int    `toml:"gps_speed_window" yaml:"gps_speed_window"`
	GPSReadSize        int    `toml:"gps_read_size" yaml:"gps_read_size"`

	// Host location service
	LocationEnabled  bool   `toml:"location_enabled" yaml:"location_enabled"`
	LocationGPSDAddr string `toml:"location_gpsd_addr" yaml:"location_gpsd_addr"`

	// Persistence
	StoreBackend  string `toml:"store_backend" yaml:"store_backend"`
	StoreURL      string `toml:"store_url" yaml:"store_url"`
	StoreCapacity int    `toml:"store_capacity" yaml:"store_capacity"`

	// Timing
	ConsoleLogInterval    int `toml:"console_log_interval" yaml:"console_log_interval"`       // milliseconds
	DisplayUpdateInterval int `toml:"display_update_interval" yaml:"display_update_interval"` // milliseconds

	// OLED display
	DisplayI2CAddr int `toml:"display_i2c_addr" yaml:"display_i2c_addr"`

	// Web Server
	WebServerPort int `toml:"web_server_port" yaml:"web_server_port"`

	// Simulator (gps_transport = "sim")
	SimStartLat   float64 `toml:"sim_start_lat" yaml:"sim_start_lat"`
	SimStartLon   float64 `toml:"sim_start_lon" yaml:"sim_start_lon"`
	SimSpeedMPS   float64 `toml:"sim_speed_mps" yaml:"sim_speed_mps"`
	SimHeadingDeg float64 `toml:"sim_heading_deg" yaml:"sim_heading_deg"`
	SimIntervalMS int     `toml:"sim_interval_ms" yaml:"sim_interval_ms"`
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through InitGlobal and Get.
//   - configOnce: InitGlobal runs once, even if called multiple times.
//   - configMu: write lock for initialization, read lock for Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	c := defaults()
	return &c
}

// Load reads the configuration file and returns a Config struct. The format
// follows the extension: .toml, .yaml/.yml, anything else is KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// present records the keys the file sets; only the others get defaults,
	// so an explicit zero such as sim_heading_deg = 0 is kept.
	cfg := &Config{}
	var present func(key string) bool
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
		if err := tree.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
		present = tree.Has
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
		var keys map[string]interface{}
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
		present = func(key string) bool { _, ok := keys[key]; return ok }
	default:
		keys, err := cfg.parseKeyValue(data)
		if err != nil {
			return nil, err
		}
		present = func(key string) bool { return keys[strings.ToUpper(key)] }
	}

	cfg.applyDefaults(present)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseKeyValue applies KEY=VALUE lines and returns the keys it saw.
func (c *Config) parseKeyValue(data []byte) (map[string]bool, error) {
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := c.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
		seen[key] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return seen, nil
}

// parseInt accepts decimal and 0x-prefixed hex, for I2C addresses.
func parseInt(key, value string) (int, error) {
	v, err := strconv.ParseInt(value, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return int(v), nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// setValue sets a config value from a KEY=VALUE line. Keys are the
// upper-case form of the toml/yaml names.
func (c *Config) setValue(key, value string) error {
	strs := map[string]*string{
		"MQTT_BROKER":            &c.MQTTBroker,
		"MQTT_CLIENT_ID_GPS":     &c.MQTTClientIDGPS,
		"MQTT_CLIENT_ID_CONSOLE": &c.MQTTClientIDConsole,
		"MQTT_CLIENT_ID_WEB":     &c.MQTTClientIDWeb,
		"MQTT_CLIENT_ID_DISPLAY": &c.MQTTClientIDDisplay,
		"MQTT_CLIENT_ID_CTL":     &c.MQTTClientIDCtl,
		"TOPIC_GPS":              &c.TopicGPS,
		"TOPIC_GPS_POSITION":     &c.TopicGPSPosition,
		"TOPIC_GPS_VELOCITY":     &c.TopicGPSVelocity,
		"TOPIC_GPS_QUALITY":      &c.TopicGPSQuality,
		"TOPIC_GPS_SATELLITES":   &c.TopicGPSSatellites,
		"TOPIC_GPS_STATUS":       &c.TopicGPSStatus,
		"TOPIC_GPS_COMMAND":      &c.TopicGPSCommand,
		"GPS_TRANSPORT":          &c.GPSTransport,
		"GPS_SERIAL_PORT":        &c.GPSSerialPort,
		"GPS_USB_VENDOR_ID":      &c.GPSUSBVendorID,
		"GPS_USB_PRODUCT_ID":     &c.GPSUSBProductID,
		"GPS_SOCKET_URL":         &c.GPSSocketURL,
		"GPS_TCP_ADDR":           &c.GPSTCPAddr,
		"LOCATION_GPSD_ADDR":     &c.LocationGPSDAddr,
		"STORE_BACKEND":          &c.StoreBackend,
		"STORE_URL":              &c.StoreURL,
	}
	ints := map[string]*int{
		"GPS_BAUD_RATE":           &c.GPSBaudRate,
		"GPS_SPEED_WINDOW":        &c.GPSSpeedWindow,
		"GPS_READ_SIZE":           &c.GPSReadSize,
		"STORE_CAPACITY":          &c.StoreCapacity,
		"CONSOLE_LOG_INTERVAL":    &c.ConsoleLogInterval,
		"DISPLAY_UPDATE_INTERVAL": &c.DisplayUpdateInterval,
		"WEB_SERVER_PORT":         &c.WebServerPort,
		"DISPLAY_I2C_ADDR":        &c.DisplayI2CAddr,
		"SIM_INTERVAL_MS":         &c.SimIntervalMS,
	}
	floats := map[string]*float64{
		"SIM_START_LAT":   &c.SimStartLat,
		"SIM_START_LON":   &c.SimStartLon,
		"SIM_SPEED_MPS":   &c.SimSpeedMPS,
		"SIM_HEADING_DEG": &c.SimHeadingDeg,
	}
	bools := map[string]*bool{
		"GPS_LENIENT_CHECKSUM": &c.GPSLenientChecksum,
		"LOCATION_ENABLED":     &c.LocationEnabled,
	}

	if p, ok := strs[key]; ok {
		*p = value
		return nil
	}
	if p, ok := ints[key]; ok {
		v, err := parseInt(key, value)
		*p = v
		return err
	}
	if p, ok := floats[key]; ok {
		v, err := parseFloat(key, value)
		*p = v
		return err
	}
	if p, ok := bools[key]; ok {
		v, err := parseBool(key, value)
		*p = v
		return err
	}
	return fmt.Errorf("unknown config key: %q", key)
}

func defaults() Config {
	return Config{
		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDGPS:     "gnss-gps-producer",
		MQTTClientIDConsole: "gnss-console",
		MQTTClientIDWeb:     "gnss-web",
		MQTTClientIDDisplay: "gnss-display",
		MQTTClientIDCtl:     "gnss-ctl",

		TopicGPS:           "gnss/gps",
		TopicGPSPosition:   "gnss/gps/position",
		TopicGPSVelocity:   "gnss/gps/velocity",
		TopicGPSQuality:    "gnss/gps/quality",
		TopicGPSSatellites: "gnss/gps/satellites",
		TopicGPSStatus:     "gnss/gps/status",
		TopicGPSCommand:    "gnss/gps/command",

		GPSTransport:    TransportSerial,
		GPSBaudRate:     9600,
		GPSUSBVendorID:  "1546",
		GPSUSBProductID: "01a9",
		GPSSpeedWindow:  10,
		GPSReadSize:     512,

		LocationGPSDAddr: "127.0.0.1:2947",

		StoreBackend:  StoreMemory,
		StoreCapacity: 1000,

		ConsoleLogInterval:    1000,
		DisplayUpdateInterval: 500,
		DisplayI2CAddr:        0x3C,
		WebServerPort:         8080,

		SimStartLat:   48.1173,
		SimStartLon:   11.516667,
		SimSpeedMPS:   5,
		SimHeadingDeg: 45,
		SimIntervalMS: 1000,
	}
}

// applyDefaults copies the default of every field whose toml key the file
// did not set.
func (c *Config) applyDefaults(present func(key string) bool) {
	def := reflect.ValueOf(defaults())
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if !present(t.Field(i).Tag.Get("toml")) {
			v.Field(i).Set(def.Field(i))
		}
	}
}

// validate checks values that defaults cannot fix.
func (c *Config) validate() error {
	switch c.GPSTransport {
	case TransportSerial:
		if !serial.IsStandardBaudRate(uint(c.GPSBaudRate)) {
			return fmt.Errorf("gps_baud_rate %d is not a standard baud rate", c.GPSBaudRate)
		}
	case TransportWebsocket:
		if !strings.HasPrefix(c.GPSSocketURL, "ws://") && !strings.HasPrefix(c.GPSSocketURL, "wss://") {
			return fmt.Errorf("gps_socket_url must be a ws:// or wss:// URL, got %q", c.GPSSocketURL)
		}
	case TransportTCP:
		if c.GPSTCPAddr == "" {
			return fmt.Errorf("gps_tcp_addr is required for gps_transport %q", TransportTCP)
		}
	case TransportSim:
	default:
		return fmt.Errorf("gps_transport must be one of serial, websocket, tcp, sim; got %q", c.GPSTransport)
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreHTTP:
		if c.StoreURL == "" {
			return fmt.Errorf("store_url is required for store_backend %q", StoreHTTP)
		}
	default:
		return fmt.Errorf("store_backend must be memory or http, got %q", c.StoreBackend)
	}

	if c.GPSSpeedWindow < 1 {
		return fmt.Errorf("gps_speed_window must be positive, got %d", c.GPSSpeedWindow)
	}
	if c.GPSReadSize < 1 {
		return fmt.Errorf("gps_read_size must be positive, got %d", c.GPSReadSize)
	}
	if c.StoreCapacity < 1 {
		return fmt.Errorf("store_capacity must be positive, got %d", c.StoreCapacity)
	}
	if c.WebServerPort < 1 || c.WebServerPort > 65535 {
		return fmt.Errorf("web_server_port %d out of range", c.WebServerPort)
	}
	if c.DisplayI2CAddr < 0x03 || c.DisplayI2CAddr > 0x77 {
		return fmt.Errorf("display_i2c_addr 0x%02X is not a 7-bit I2C address", c.DisplayI2CAddr)
	}
	intervals := []struct {
		key string
		v   int
	}{
		{"console_log_interval", c.ConsoleLogInterval},
		{"display_update_interval", c.DisplayUpdateInterval},
		{"sim_interval_ms", c.SimIntervalMS},
	}
	for _, iv := range intervals {
		if iv.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", iv.key, iv.v)
		}
	}
	if c.SimSpeedMPS < 0 {
		return fmt.Errorf("sim_speed_mps must not be negative, got %v", c.SimSpeedMPS)
	}
	if c.SimStartLat < -90 || c.SimStartLat > 90 || c.SimStartLon < -180 || c.SimStartLon > 180 {
		return fmt.Errorf("sim start %v,%v out of range", c.SimStartLat, c.SimStartLon)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
