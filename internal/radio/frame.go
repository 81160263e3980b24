// Package radio drives a UART-attached LoRa modem speaking a newline-framed
// line protocol: "SND <hex>" transmits a payload, "RCV <rssi> <snr> <hex>"
// reports a reception with the modem's link stats. Payloads travel as hex so
// the frames stay printable on a shared console.
package radio

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPayload is the largest payload the modem accepts, matching the receive
// buffer on the deployed radios.
const MaxPayload = 256

const (
	sendPrefix    = "SND "
	receivePrefix = "RCV "
)

var (
	ErrPayloadTooLarge = errors.New("payload exceeds radio maximum")
	ErrEmptyPayload    = errors.New("empty payload")
	ErrBadFrame        = errors.New("malformed modem frame")
)

// RxFrame is one received packet with the link stats the modem measured.
type RxFrame struct {
	Payload []byte
	RSSI    float32 // dBm
	SNR     float32 // dB
}

// FormatSend builds the transmit line for a payload.
func FormatSend(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", ErrEmptyPayload
	}
	if len(payload) > MaxPayload {
		return "", fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	return sendPrefix + hex.EncodeToString(payload), nil
}

// IsReceive reports whether a modem line carries a received packet. The
// modem also prints boot banners and acks, which callers skip.
func IsReceive(line string) bool {
	return strings.HasPrefix(line, receivePrefix)
}

// ParseReceive decodes a receive line into its payload and link stats.
func ParseReceive(line string) (RxFrame, error) {
	if !IsReceive(line) {
		return RxFrame{}, fmt.Errorf("%w: missing %q prefix", ErrBadFrame, strings.TrimSpace(receivePrefix))
	}
	parts := strings.Fields(line[len(receivePrefix):])
	if len(parts) != 3 {
		return RxFrame{}, fmt.Errorf("%w: want rssi, snr and payload, got %d fields", ErrBadFrame, len(parts))
	}
	rssi, err := strconv.ParseFloat(parts[0], 32)
	if err != nil {
		return RxFrame{}, fmt.Errorf("%w: rssi %q", ErrBadFrame, parts[0])
	}
	snr, err := strconv.ParseFloat(parts[1], 32)
	if err != nil {
		return RxFrame{}, fmt.Errorf("%w: snr %q", ErrBadFrame, parts[1])
	}
	payload, err := hex.DecodeString(parts[2])
	if err != nil {
		return RxFrame{}, fmt.Errorf("%w: payload not hex", ErrBadFrame)
	}
	if len(payload) == 0 {
		return RxFrame{}, fmt.Errorf("%w: empty payload", ErrBadFrame)
	}
	if len(payload) > MaxPayload {
		return RxFrame{}, fmt.Errorf("%w: %d byte payload", ErrPayloadTooLarge, len(payload))
	}
	return RxFrame{
		Payload: payload,
		RSSI:    float32(rssi),
		SNR:     float32(snr),
	}, nil
}

// FormatReceive builds a receive line, used by the loopback test modem and
// the simulator.
func FormatReceive(f RxFrame) string {
	return fmt.Sprintf("%s%.1f %.2f %s", receivePrefix, f.RSSI, f.SNR, hex.EncodeToString(f.Payload))
}
