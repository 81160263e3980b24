package model

// PacketRecord is the JSON document published downstream for one received
// packet. Sensor packets fill Analog/Digital; GNSS packets fill the pointer
// fields so a legitimate zero coordinate still serializes.
type PacketRecord struct {
	Type      string   `json:"type"` // "sensor" or "gnss"
	NodeID    uint32   `json:"nodeId"`
	Counter   uint32   `json:"counter"`
	Uptime    uint32   `json:"uptime"`  // sender uptime, seconds
	Battery   uint8    `json:"battery"` // percent
	Voltage   float64  `json:"voltage"` // volts
	Analog    []uint16 `json:"analog,omitempty"`
	Digital   []bool   `json:"digital,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Course    *float64 `json:"course,omitempty"`
	HDOP      *float64 `json:"hdop,omitempty"` // dilution, already divided back to units
	RSSI      float32  `json:"rssi"`           // dBm at the receiving radio
	SNR       float32  `json:"snr"`            // dB
	Timestamp int64    `json:"timestamp"`      // unix seconds at the receiver
}

// StatusReport is the retained heartbeat a gateway publishes on its status
// topic.
type StatusReport struct {
	Status      string        `json:"status"`
	GatewayID   string        `json:"gateway_id"`
	EUI         string        `json:"eui"`
	Received    uint64        `json:"packetsReceived"`
	Forwarded   uint64        `json:"packetsForwarded"`
	Duplicates  uint64        `json:"packetsDuplicate"`
	Invalid     uint64        `json:"packetsInvalid"`
	UptimeSec   uint64        `json:"uptime"`
	Timestamp   int64         `json:"timestamp"`
	TimestampMs int64         `json:"timestamp_ms"` // milliseconds since gateway start
	Health      *HealthSample `json:"health,omitempty"`
}

// HealthSample is the host telemetry block embedded in a StatusReport.
type HealthSample struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedMB     float64 `json:"mem_used_mb"`
	MemTotalMB    float64 `json:"mem_total_mb"`
	DiskUsedGB    float64 `json:"disk_used_gb"`
	DiskTotalGB   float64 `json:"disk_total_gb"`
	HostUptimeSec uint64  `json:"host_uptime_sec"`
}

// NodeSummary is the fog server's per-node aggregate for the nodes API.
type NodeSummary struct {
	NodeID   uint32  `json:"nodeId"`
	Packets  int64   `json:"packets"`
	LastSeen string  `json:"lastSeen"` // RFC3339
	LastType string  `json:"lastType"`
	LastRSSI float32 `json:"lastRssi"`
}
