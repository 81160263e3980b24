package packet

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestToRecordSensor(t *testing.T) {
	p := testSensorPacket()
	at := time.Unix(1_700_000_000, 0)
	rec, err := ToRecord(p, -87.5, 9.25, at)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	if rec.Type != "sensor" {
		t.Errorf("type = %q, want sensor", rec.Type)
	}
	if rec.NodeID != p.NodeID || rec.Counter != p.Counter || rec.Uptime != p.Uptime {
		t.Errorf("header fields = %d/%d/%d", rec.NodeID, rec.Counter, rec.Uptime)
	}
	if rec.Battery != p.BatteryLevel {
		t.Errorf("battery = %d, want %d", rec.Battery, p.BatteryLevel)
	}
	if rec.Voltage != 3.912 {
		t.Errorf("voltage = %g V, want 3.912", rec.Voltage)
	}
	if len(rec.Analog) != 4 || rec.Analog[2] != 300 {
		t.Errorf("analog = %v", rec.Analog)
	}
	// Boolean 0b00000101: bits 0 and 2 set, LSB first.
	wantDigital := []bool{true, false, true, false, false, false, false, false}
	if len(rec.Digital) != 8 {
		t.Fatalf("digital length = %d, want 8", len(rec.Digital))
	}
	for i, want := range wantDigital {
		if rec.Digital[i] != want {
			t.Errorf("digital[%d] = %v, want %v", i, rec.Digital[i], want)
		}
	}
	if rec.Latitude != nil || rec.Longitude != nil || rec.HDOP != nil {
		t.Error("sensor record carries location fields")
	}
	if rec.RSSI != -87.5 || rec.SNR != 9.25 {
		t.Errorf("radio stats = %g/%g", rec.RSSI, rec.SNR)
	}
	if rec.Timestamp != at.Unix() {
		t.Errorf("timestamp = %d, want %d", rec.Timestamp, at.Unix())
	}
}

func TestToRecordGnss(t *testing.T) {
	p := testGnssPacket()
	rec, err := ToRecord(p, -101, 3.5, time.Now())
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	if rec.Type != "gnss" {
		t.Errorf("type = %q, want gnss", rec.Type)
	}
	if rec.Latitude == nil || *rec.Latitude != float64(p.Latitude) {
		t.Errorf("latitude = %v", rec.Latitude)
	}
	if rec.Longitude == nil || *rec.Longitude != float64(p.Longitude) {
		t.Errorf("longitude = %v", rec.Longitude)
	}
	if rec.HDOP == nil || *rec.HDOP != 1.4 {
		t.Errorf("hdop = %v, want 1.4 from wire value 14", rec.HDOP)
	}
	if rec.Course == nil || *rec.Course != float64(p.Course) {
		t.Errorf("course = %v", rec.Course)
	}
	if rec.Voltage != 3.71 {
		t.Errorf("voltage = %g V, want 3.71", rec.Voltage)
	}
	if rec.Analog != nil || rec.Digital != nil {
		t.Error("gnss record carries pin fields")
	}
}

func TestToRecordJSONShape(t *testing.T) {
	rec, err := ToRecord(testSensorPacket(), -80, 7, time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	for _, key := range []string{`"type":"sensor"`, `"nodeId":`, `"counter":7`, `"battery":81`, `"analog":[100,200,300,400]`} {
		if !strings.Contains(s, key) {
			t.Errorf("JSON missing %s in %s", key, s)
		}
	}
	// Location keys must be absent, not null, for sensor records.
	for _, key := range []string{`"latitude"`, `"longitude"`, `"hdop"`} {
		if strings.Contains(s, key) {
			t.Errorf("sensor JSON contains %s", key)
		}
	}
}

func TestToRecordNil(t *testing.T) {
	if _, err := ToRecord(nil, 0, 0, time.Now()); !errors.Is(err, ErrNilPacket) {
		t.Errorf("ToRecord(nil) = %v, want ErrNilPacket", err)
	}
}
