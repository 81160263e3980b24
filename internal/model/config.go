// Package model defines the shared configuration structures and JSON record
// types used to wire up the SensorSentinel programs.
package model

// Config is the root structure loaded from the YAML configuration file.
type Config struct {
	Env      string      `yaml:"env"`       // dev|prod, selects the log handler
	LogLevel string      `yaml:"log_level"` // debug|info|warn|error
	Node     NodeConfig  `yaml:"node"`
	Radio    RadioConfig `yaml:"radio"`
	Gnss     GnssConfig  `yaml:"gnss"`
	Dedup    DedupConfig `yaml:"dedup"`
	Mqtt     MqttConfig  `yaml:"mqtt"`
	Fog      FogConfig   `yaml:"fog"`
}

// NodeConfig configures the sending role.
type NodeConfig struct {
	Board            string `yaml:"board"`              // pin profile name
	SensorIntervalMs int    `yaml:"sensor_interval_ms"` // between sensor packets
	GnssIntervalMs   int    `yaml:"gnss_interval_ms"`   // between GNSS packets; 0 disables
}

// RadioConfig configures the serial-attached LoRa modem.
type RadioConfig struct {
	Device            string  `yaml:"device"`
	Baud              int     `yaml:"baud"`
	DutyCyclePct      float64 `yaml:"duty_cycle_pct"`
	MinSendIntervalMs int     `yaml:"min_send_interval_ms"` // floor on the pause between transmissions
	RepeatDelayMs     int     `yaml:"repeat_delay_ms"`      // collision-avoidance pause before a repeat
}

// GnssConfig configures the optional NMEA receiver. An empty device means no
// GNSS hardware; GNSS packets are then sent with zeroed location fields.
type GnssConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// DedupConfig sets the duplicate-suppression ring capacities per role.
type DedupConfig struct {
	RepeaterCapacity int `yaml:"repeater_capacity"`
	GatewayCapacity  int `yaml:"gateway_capacity"`
}

// MqttConfig configures the broker connection shared by gateway and fog server.
type MqttConfig struct {
	Broker           string `yaml:"broker"` // e.g. tcp://localhost:1883
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	TopicPrefix      string `yaml:"topic_prefix"`
	StatusIntervalMs int    `yaml:"status_interval_ms"` // gateway heartbeat period
}

// FogConfig configures the fog server's HTTP listener and packet archive.
type FogConfig struct {
	HTTPAddr   string `yaml:"http_addr"`
	SQLitePath string `yaml:"sqlite_path"`
}

// DefaultConfig returns the configuration used when the file is absent or a
// field is left empty. Intervals mirror the deployed firmware.
func DefaultConfig() Config {
	return Config{
		Env:      "dev",
		LogLevel: "info",
		Node: NodeConfig{
			Board:            "heltec_v3",
			SensorIntervalMs: 30000,
			GnssIntervalMs:   90000,
		},
		Radio: RadioConfig{
			Device:            "/dev/ttyUSB0",
			Baud:              115200,
			DutyCyclePct:      1.0,
			MinSendIntervalMs: 5000,
			RepeatDelayMs:     250,
		},
		Gnss: GnssConfig{
			Baud: 9600,
		},
		Dedup: DedupConfig{
			RepeaterCapacity: 10,
			GatewayCapacity:  50,
		},
		Mqtt: MqttConfig{
			Broker:           "tcp://localhost:1883",
			TopicPrefix:      "lora",
			StatusIntervalMs: 60000,
		},
		Fog: FogConfig{
			HTTPAddr:   ":8080",
			SQLitePath: "fog.db",
		},
	}
}
