package domain

import (
	"fmt"
	"net"
)

// InetAddr is an IPv4 address, stored in its 4-octet wire form.
type InetAddr [4]byte

// NewInetAddr builds an InetAddr from a dotted-quad string such as
// "192.5.5.241".
func NewInetAddr(s string) (InetAddr, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return InetAddr{}, fmt.Errorf("invalid IPv4 address %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return InetAddr{}, fmt.Errorf("address %q is not IPv4", s)
	}
	var a InetAddr
	copy(a[:], v4)
	return a, nil
}

// InetAddrFromBytes builds an InetAddr from 4 raw wire-format octets.
func InetAddrFromBytes(b []byte) (InetAddr, error) {
	if len(b) != 4 {
		return InetAddr{}, fmt.Errorf("expected 4 octets for an IPv4 address, got %d", len(b))
	}
	var a InetAddr
	copy(a[:], b)
	return a, nil
}

// String returns the dotted-quad presentation form.
func (a InetAddr) String() string {
	return net.IP(a[:]).String()
}

// Bytes returns the 4-octet wire form.
func (a InetAddr) Bytes() []byte {
	return a[:]
}

// UDPAddr returns a *net.UDPAddr for a at the given port.
func (a InetAddr) UDPAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IP(a[:]), Port: port}
}

// Inet6Addr is an IPv6 address, stored opaquely in its 16-octet wire form.
// This resolver never dials out over IPv6 (see spec non-goals); Inet6Addr
// exists only so AAAA records can be parsed and echoed back to clients; they
// are not cached.
type Inet6Addr [16]byte

// Inet6AddrFromBytes builds an Inet6Addr from 16 raw wire-format octets.
func Inet6AddrFromBytes(b []byte) (Inet6Addr, error) {
	if len(b) != 16 {
		return Inet6Addr{}, fmt.Errorf("expected 16 octets for an IPv6 address, got %d", len(b))
	}
	var a Inet6Addr
	copy(a[:], b)
	return a, nil
}

// String returns the colon-hex presentation form.
func (a Inet6Addr) String() string {
	return net.IP(a[:]).String()
}

// Bytes returns the 16-octet wire form.
func (a Inet6Addr) Bytes() []byte {
	return a[:]
}
