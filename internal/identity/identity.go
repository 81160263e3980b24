// Package identity derives the 32-bit node id broadcast in every packet,
// plus the EUI-64 and MQTT client id, from the host's hardware MAC. The
// deployed boards build theirs from the WiFi MAC the same way. Hosts with no
// usable interface fall back to a random identity so they can still join the
// network.
package identity

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/brocaar/lorawan"
)

// Node holds the derived identifiers for one process.
type Node struct {
	EUI    lorawan.EUI64
	ID     uint32
	Random bool // no usable MAC was found, id is random
}

// NodeID returns the 32-bit id stamped into outgoing packet headers.
func (n Node) NodeID() uint32 { return n.ID }

// ClientID returns the MQTT client id in the fleet's convention,
// e.g. "SensorSentinel-c4123456".
func (n Node) ClientID() string { return fmt.Sprintf("SensorSentinel-%08x", n.ID) }

// FromMAC expands a 48-bit MAC into an EUI-64 by inserting FFFE between the
// OUI and the serial, and takes the node id from the MAC's last four bytes.
func FromMAC(mac net.HardwareAddr) (Node, error) {
	if len(mac) != 6 {
		return Node{}, fmt.Errorf("need a 48-bit MAC, got %d bytes", len(mac))
	}
	var eui lorawan.EUI64
	copy(eui[0:3], mac[0:3])
	eui[3] = 0xFF
	eui[4] = 0xFE
	copy(eui[5:8], mac[3:6])
	return Node{
		EUI: eui,
		ID:  binary.BigEndian.Uint32(mac[2:6]),
	}, nil
}

// Discover derives the identity from the first non-loopback interface with a
// 48-bit hardware address. Interfaces whose MAC would produce a zero id are
// skipped; id zero marks an invalid packet on the wire.
func Discover() Node {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, ifc := range ifaces {
			if ifc.Flags&net.FlagLoopback != 0 {
				continue
			}
			n, err := FromMAC(ifc.HardwareAddr)
			if err != nil || n.ID == 0 {
				continue
			}
			return n
		}
	}
	return randomNode()
}

func randomNode() Node {
	var eui lorawan.EUI64
	crand.Read(eui[:])
	n := Node{EUI: eui, Random: true}
	n.ID = binary.BigEndian.Uint32(eui[4:8])
	if n.ID == 0 {
		n.ID = 1
	}
	return n
}
