package gnss

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseCoord converts NMEA ddmm.mmmm format to decimal degrees.
// For example, 2101.7102,N -> 21.0285033
func ParseCoord(value string, dir string) (float64, error) {
	if len(value) < 4 {
		return 0, fmt.Errorf("invalid NMEA coord")
	}
	var degPart, minPart string
	if dir == "N" || dir == "S" {
		degPart = value[:2]
		minPart = value[2:]
	} else {
		degPart = value[:3]
		minPart = value[3:]
	}
	deg, err := strconv.ParseFloat(degPart, 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(minPart, 64)
	if err != nil {
		return 0, err
	}
	dec := deg + min/60.0
	if dir == "S" || dir == "W" {
		dec = -dec
	}
	return dec, nil
}

// FormatCoord converts decimal degrees to ddmm.mmmm format plus the
// hemisphere letter.
func FormatCoord(dec float64, isLat bool) (string, string) {
	dir := "N"
	if !isLat {
		dir = "E"
	}
	if dec < 0 {
		dec = -dec
		if isLat {
			dir = "S"
		} else {
			dir = "W"
		}
	}
	deg := int(dec)
	min := (dec - float64(deg)) * 60
	if isLat {
		return fmt.Sprintf("%02d%07.4f", deg, min), dir
	}
	return fmt.Sprintf("%03d%07.4f", deg, min), dir
}

// Checksum returns the two-digit XOR checksum of a sentence body (the text
// between '$' and '*').
func Checksum(body string) string {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return fmt.Sprintf("%02X", cs)
}

// Fields splits a sentence into its comma-separated fields after stripping
// the leading '$' and any trailing checksum. A sentence carrying a checksum
// that does not match is rejected; sentences without one pass through, since
// several receiver modules omit it on some talkers.
func Fields(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if len(line) < 7 || line[0] != '$' {
		return nil, fmt.Errorf("not an NMEA sentence")
	}
	body := line[1:]
	if i := strings.IndexByte(body, '*'); i >= 0 {
		if want := body[i+1:]; want != Checksum(body[:i]) {
			return nil, fmt.Errorf("checksum mismatch: got %s, want %s", want, Checksum(body[:i]))
		}
		body = body[:i]
	}
	return strings.Split(body, ","), nil
}

// RMC is the recommended-minimum sentence: position, speed over ground and
// course, plus whether the receiver considers the fix valid.
type RMC struct {
	Valid     bool
	Latitude  float64
	Longitude float64
	SpeedKmh  float64
	Course    float64
}

// ParseRMC decodes a GPRMC/GNRMC sentence.
func ParseRMC(fields []string) (RMC, error) {
	if len(fields) < 9 {
		return RMC{}, fmt.Errorf("short RMC sentence: %d fields", len(fields))
	}
	var out RMC
	out.Valid = fields[2] == "A"
	if !out.Valid {
		return out, nil
	}
	var err error
	if out.Latitude, err = ParseCoord(fields[3], fields[4]); err != nil {
		return RMC{}, err
	}
	if out.Longitude, err = ParseCoord(fields[5], fields[6]); err != nil {
		return RMC{}, err
	}
	if fields[7] != "" {
		knots, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return RMC{}, err
		}
		out.SpeedKmh = knots * 1.852
	}
	if fields[8] != "" {
		if out.Course, err = strconv.ParseFloat(fields[8], 64); err != nil {
			return RMC{}, err
		}
	}
	return out, nil
}

// GGA is the fix-data sentence; only the quality and dilution matter here,
// position is taken from RMC.
type GGA struct {
	Quality int
	HDOP    float64
}

// ParseGGA decodes a GPGGA/GNGGA sentence.
func ParseGGA(fields []string) (GGA, error) {
	if len(fields) < 9 {
		return GGA{}, fmt.Errorf("short GGA sentence: %d fields", len(fields))
	}
	var out GGA
	var err error
	if fields[6] != "" {
		if out.Quality, err = strconv.Atoi(fields[6]); err != nil {
			return GGA{}, err
		}
	}
	if fields[8] != "" {
		if out.HDOP, err = strconv.ParseFloat(fields[8], 64); err != nil {
			return GGA{}, err
		}
	}
	return out, nil
}

// BuildRMC formats a valid RMC sentence for the given position, for feeding
// NMEA consumers from the simulator.
func BuildRMC(at time.Time, lat, lon, speedKmh, course float64) string {
	latS, latDir := FormatCoord(lat, true)
	lonS, lonDir := FormatCoord(lon, false)
	body := fmt.Sprintf("GNRMC,%s,A,%s,%s,%s,%s,%.2f,%.2f,%s,,,A",
		at.UTC().Format("150405.00"),
		latS, latDir, lonS, lonDir,
		speedKmh/1.852, course,
		at.UTC().Format("020106"))
	return "$" + body + "*" + Checksum(body)
}

// BuildGGA formats a GGA sentence carrying the dilution of precision.
func BuildGGA(at time.Time, lat, lon, hdop float64) string {
	latS, latDir := FormatCoord(lat, true)
	lonS, lonDir := FormatCoord(lon, false)
	body := fmt.Sprintf("GNGGA,%s,%s,%s,%s,%s,1,08,%.1f,0.0,M,0.0,M,,",
		at.UTC().Format("150405.00"),
		latS, latDir, lonS, lonDir, hdop)
	return "$" + body + "*" + Checksum(body)
}
