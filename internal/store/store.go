// Package store archives packet records in SQLite for the fog server's
// query APIs.
package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nolfonzo/SensorSentinel/internal/model"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/insert-packet.sql
var insertPacketSQL string

//go:embed sql/recent-packets.sql
var recentPacketsSQL string

//go:embed sql/recent-by-node.sql
var recentByNodeSQL string

//go:embed sql/node-summaries.sql
var nodeSummariesSQL string

//go:embed sql/count-packets.sql
var countPacketsSQL string

const defaultQueryLimit = 100

// Store wraps the SQLite handle and the packet queries.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive at path, applies the schema, and
// verifies connectivity.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// busy_timeout covers the MQTT writer and HTTP readers sharing the file;
	// WAL lets them overlap.
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	dsn := fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&"))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.applySchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore builds a store over an existing handle and applies the schema.
// Used by tests with an in-memory database.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.applySchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) applySchema() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InsertRecord archives one packet record.
func (s *Store) InsertRecord(rec model.PacketRecord) error {
	analog, err := marshalColumn(rec.Analog)
	if err != nil {
		return fmt.Errorf("marshal analog: %w", err)
	}
	digital, err := marshalColumn(rec.Digital)
	if err != nil {
		return fmt.Errorf("marshal digital: %w", err)
	}
	ts := time.Unix(rec.Timestamp, 0).UTC().Format(time.RFC3339Nano)

	_, err = s.db.Exec(insertPacketSQL,
		rec.Type, rec.NodeID, rec.Counter, rec.Uptime, rec.Battery, rec.Voltage,
		analog, digital, rec.Latitude, rec.Longitude, rec.Speed, rec.Course, rec.HDOP,
		rec.RSSI, rec.SNR, ts)
	if err != nil {
		return fmt.Errorf("insert packet: %w", err)
	}
	return nil
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(limit int) ([]model.PacketRecord, error) {
	rows, err := s.db.Query(recentPacketsSQL, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "recent packets")
	return scanRecords(rows)
}

// RecentByNode returns the newest records from one node, newest first.
func (s *Store) RecentByNode(nodeID uint32, limit int) ([]model.PacketRecord, error) {
	rows, err := s.db.Query(recentByNodeSQL, nodeID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "recent by node")
	return scanRecords(rows)
}

// Nodes aggregates the archive per node, most recently heard first.
func (s *Store) Nodes() ([]model.NodeSummary, error) {
	rows, err := s.db.Query(nodeSummariesSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "node summaries")

	var out []model.NodeSummary
	for rows.Next() {
		var n model.NodeSummary
		if err := rows.Scan(&n.NodeID, &n.Packets, &n.LastSeen, &n.LastType, &n.LastRSSI); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Count returns the number of archived records.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow(countPacketsSQL).Scan(&n)
	return n, err
}

func scanRecords(rows *sql.Rows) ([]model.PacketRecord, error) {
	var out []model.PacketRecord
	for rows.Next() {
		var rec model.PacketRecord
		var analog, digital sql.NullString
		var lat, lon, speed, course, hdop sql.NullFloat64
		var ts string
		err := rows.Scan(&rec.Type, &rec.NodeID, &rec.Counter, &rec.Uptime, &rec.Battery, &rec.Voltage,
			&analog, &digital, &lat, &lon, &speed, &course, &hdop,
			&rec.RSSI, &rec.SNR, &ts)
		if err != nil {
			return nil, err
		}
		if analog.Valid {
			if err := json.Unmarshal([]byte(analog.String), &rec.Analog); err != nil {
				return nil, fmt.Errorf("unmarshal analog: %w", err)
			}
		}
		if digital.Valid {
			if err := json.Unmarshal([]byte(digital.String), &rec.Digital); err != nil {
				return nil, fmt.Errorf("unmarshal digital: %w", err)
			}
		}
		rec.Latitude = fromNull(lat)
		rec.Longitude = fromNull(lon)
		rec.Speed = fromNull(speed)
		rec.Course = fromNull(course)
		rec.HDOP = fromNull(hdop)

		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		rec.Timestamp = t.Unix()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// marshalColumn turns a slice into a JSON TEXT column value, or NULL when
// the slice is empty.
func marshalColumn(v any) (any, error) {
	switch s := v.(type) {
	case []uint16:
		if len(s) == 0 {
			return nil, nil
		}
	case []bool:
		if len(s) == 0 {
			return nil, nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultQueryLimit
	}
	return limit
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "err", err)
	}
}
