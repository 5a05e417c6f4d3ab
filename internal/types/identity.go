package types

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/hashicorp/go-version"
)

// ProtocolVersion is advertised by every node on join so that peers
// running an incompatible ring protocol refuse to link up instead of
// silently corrupting the topology.
const ProtocolVersion = "1.0.0"

// MinSupportedProtocolVersion is the oldest protocol version a joining
// peer may advertise and still be accepted by this node.
const MinSupportedProtocolVersion = "1.0.0"

// CompatibleVersion reports whether a joining peer advertising
// remoteVersion may be accepted by this node.
func CompatibleVersion(remoteVersion string) (bool, error) {
	remote, err := version.NewVersion(remoteVersion)
	if err != nil {
		return false, fmt.Errorf("parsing remote protocol version %q: %w", remoteVersion, err)
	}
	min, err := version.NewVersion(MinSupportedProtocolVersion)
	if err != nil {
		return false, fmt.Errorf("parsing minimum supported version: %w", err)
	}
	return remote.GreaterThanOrEqual(min), nil
}

// Identity is a node's address on the ring: an IPv4 host plus a port.
// It is also the comparison key for leader election, via Encode.
type Identity struct {
	Host string
	Port uint16
}

// String renders the identity the way it travels on the wire and is
// printed in chat lines: "host:port".
func (i Identity) String() string {
	return fmt.Sprintf("%s:%d", i.Host, i.Port)
}

// Encode packs an IPv4 host and a port into the 48-bit integer used as
// the Chang-Roberts comparison key: (ipv4_as_big_endian_u32 << 16) | port.
func Encode(host string, port uint16) (uint64, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		return 0, fmt.Errorf("invalid IPv4 address %q", host)
	}
	v4 := ip.To4()
	if v4 == nil {
		return 0, fmt.Errorf("address %q is not IPv4", host)
	}
	asInt := binary.BigEndian.Uint32(v4)
	return (uint64(asInt) << 16) | uint64(port), nil
}

// ID is a convenience wrapper around Encode for an Identity, panicking
// only on a malformed host that should have been validated at the
// network boundary already (CLI parsing, join acceptance).
func (i Identity) ID() uint64 {
	id, err := Encode(i.Host, i.Port)
	if err != nil {
		// Identities are always built from validated IPv4 strings;
		// reaching this means a caller skipped validation.
		panic(err)
	}
	return id
}

// Decode is the inverse of Encode.
func Decode(id uint64) Identity {
	ipInt := uint32(id >> 16)
	port := uint16(id & 0xffff)
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, ipInt)
	host := net.IP(buf).String()
	return Identity{Host: host, Port: port}
}

// ValidateIPv4 mirrors the CLI-level validation the original source
// performed with socket.inet_aton before ever constructing a node.
func ValidateIPv4(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.To4() != nil
}
