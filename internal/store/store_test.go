package store

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nolfonzo/SensorSentinel/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func sensorRecord(nodeID, counter uint32, ts int64) model.PacketRecord {
	return model.PacketRecord{
		Type:      "sensor",
		NodeID:    nodeID,
		Counter:   counter,
		Uptime:    120,
		Battery:   81,
		Voltage:   3.912,
		Analog:    []uint16{100, 200, 300, 400},
		Digital:   []bool{true, false, true, false, false, false, false, false},
		RSSI:      -87.5,
		SNR:       9.25,
		Timestamp: ts,
	}
}

func gnssRecord(nodeID, counter uint32, ts int64) model.PacketRecord {
	lat, lon := -33.8688, 151.2093
	speed, course, hdop := 4.2, 273.5, 1.4
	return model.PacketRecord{
		Type:      "gnss",
		NodeID:    nodeID,
		Counter:   counter,
		Uptime:    300,
		Battery:   64,
		Voltage:   3.71,
		Latitude:  &lat,
		Longitude: &lon,
		Speed:     &speed,
		Course:    &course,
		HDOP:      &hdop,
		RSSI:      -102,
		SNR:       -3.5,
		Timestamp: ts,
	}
}

func TestRecentEmpty(t *testing.T) {
	s := setupTestStore(t)
	recs, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("Recent on empty archive: got %d records, want 0", len(recs))
	}
}

func TestInsertAndRecent(t *testing.T) {
	s := setupTestStore(t)
	for i, rec := range []model.PacketRecord{
		sensorRecord(0xA1B2C3D4, 1, 1724400000),
		gnssRecord(0xA1B2C3D4, 1, 1724400030),
		sensorRecord(0xA1B2C3D4, 2, 1724400060),
	} {
		if err := s.InsertRecord(rec); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	recs, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Recent: got %d records, want 3", len(recs))
	}
	// Newest first.
	if recs[0].Counter != 2 || recs[0].Type != "sensor" {
		t.Errorf("first record: got type=%s counter=%d, want sensor/2", recs[0].Type, recs[0].Counter)
	}
	if recs[1].Type != "gnss" {
		t.Errorf("second record type = %s, want gnss", recs[1].Type)
	}
}

func TestSensorRecordRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	in := sensorRecord(0xA1B2C3D4, 7, 1724400000)
	if err := s.InsertRecord(in); err != nil {
		t.Fatalf("insert: %v", err)
	}

	recs, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	got := recs[0]
	if got.NodeID != in.NodeID || got.Counter != in.Counter || got.Uptime != in.Uptime {
		t.Errorf("identity fields: got %+v", got)
	}
	if got.Battery != in.Battery || got.Voltage != in.Voltage {
		t.Errorf("battery fields: got %d/%v, want %d/%v", got.Battery, got.Voltage, in.Battery, in.Voltage)
	}
	if len(got.Analog) != 4 || got.Analog[2] != 300 {
		t.Errorf("analog: got %v", got.Analog)
	}
	if len(got.Digital) != 8 || !got.Digital[0] || got.Digital[1] || !got.Digital[2] {
		t.Errorf("digital: got %v", got.Digital)
	}
	if got.Latitude != nil || got.HDOP != nil {
		t.Error("sensor record must not grow location fields in the archive")
	}
	if got.RSSI != in.RSSI || got.SNR != in.SNR {
		t.Errorf("radio fields: got %v/%v", got.RSSI, got.SNR)
	}
	if got.Timestamp != in.Timestamp {
		t.Errorf("timestamp: got %d, want %d", got.Timestamp, in.Timestamp)
	}
}

func TestGnssRecordRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	in := gnssRecord(0xB000001, 12, 1724400000)
	if err := s.InsertRecord(in); err != nil {
		t.Fatalf("insert: %v", err)
	}

	recs, err := s.Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	got := recs[0]
	for name, pair := range map[string][2]*float64{
		"latitude":  {got.Latitude, in.Latitude},
		"longitude": {got.Longitude, in.Longitude},
		"speed":     {got.Speed, in.Speed},
		"course":    {got.Course, in.Course},
		"hdop":      {got.HDOP, in.HDOP},
	} {
		if pair[0] == nil {
			t.Errorf("%s lost in the archive", name)
			continue
		}
		if *pair[0] != *pair[1] {
			t.Errorf("%s: got %v, want %v", name, *pair[0], *pair[1])
		}
	}
	if got.Analog != nil || got.Digital != nil {
		t.Error("gnss record must not grow sensor fields in the archive")
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	s := setupTestStore(t)
	for i := uint32(1); i <= 5; i++ {
		if err := s.InsertRecord(sensorRecord(1, i, 1724400000+int64(i))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	recs, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Counter != 5 || recs[1].Counter != 4 {
		t.Errorf("order: got counters %d,%d, want 5,4", recs[0].Counter, recs[1].Counter)
	}
}

func TestRecentByNode(t *testing.T) {
	s := setupTestStore(t)
	for i := uint32(1); i <= 3; i++ {
		if err := s.InsertRecord(sensorRecord(0xAA, i, 1724400000+int64(i))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := s.InsertRecord(sensorRecord(0xBB, 1, 1724400100)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	recs, err := s.RecentByNode(0xAA, 10)
	if err != nil {
		t.Fatalf("RecentByNode: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records for node 0xAA, want 3", len(recs))
	}
	for _, rec := range recs {
		if rec.NodeID != 0xAA {
			t.Errorf("foreign node %#x in result", rec.NodeID)
		}
	}
}

func TestNodes(t *testing.T) {
	s := setupTestStore(t)
	if err := s.InsertRecord(sensorRecord(0xAA, 1, 1724400000)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertRecord(sensorRecord(0xAA, 2, 1724400060)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertRecord(gnssRecord(0xBB, 9, 1724400120)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	nodes, err := s.Nodes()
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	// Most recently heard first.
	if nodes[0].NodeID != 0xBB || nodes[0].Packets != 1 || nodes[0].LastType != "gnss" {
		t.Errorf("first node: %+v", nodes[0])
	}
	if nodes[1].NodeID != 0xAA || nodes[1].Packets != 2 || nodes[1].LastType != "sensor" {
		t.Errorf("second node: %+v", nodes[1])
	}
	if nodes[1].LastSeen == "" {
		t.Error("LastSeen not populated")
	}
}

func TestCount(t *testing.T) {
	s := setupTestStore(t)
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("empty archive count = %d", n)
	}
	for i := uint32(1); i <= 4; i++ {
		if err := s.InsertRecord(sensorRecord(1, i, 1724400000)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	n, err = s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Fatalf("count = %d, want 4", n)
	}
}
