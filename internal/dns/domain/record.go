package domain

import "fmt"

// RDATA is the type-specific payload of a ResourceRecord. Each supported
// RRType has a concrete RDATA implementation below; anything else is
// carried as OpaqueData so the wire codec can still round-trip it without
// understanding its contents.
type RDATA interface {
	rrType() RRType
	String() string
}

// AData is the RDATA for an A record: a single IPv4 address.
type AData struct {
	Addr InetAddr
}

func (AData) rrType() RRType  { return RRTypeA }
func (d AData) String() string { return d.Addr.String() }

// NSData is the RDATA for an NS record: the name of a server authoritative
// for the owner name's zone.
type NSData struct {
	NSDName DomainName
}

func (NSData) rrType() RRType    { return RRTypeNS }
func (d NSData) String() string { return d.NSDName.String() }

// CNAMEData is the RDATA for a CNAME record: the canonical name the owner
// is an alias for.
type CNAMEData struct {
	Target DomainName
}

func (CNAMEData) rrType() RRType  { return RRTypeCNAME }
func (d CNAMEData) String() string { return d.Target.String() }

// SOAData is the RDATA for an SOA record. This resolver only ever needs to
// round-trip it (e.g. in a negative-response authority section); it never
// inspects the individual timer fields.
type SOAData struct {
	MName   DomainName
	RName   DomainName
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

func (SOAData) rrType() RRType { return RRTypeSOA }
func (d SOAData) String() string {
	return fmt.Sprintf("%s %s %d %d %d %d %d", d.MName, d.RName, d.Serial, d.Refresh, d.Retry, d.Expire, d.Minimum)
}

// AAAAData is the RDATA for an AAAA record: a single IPv6 address. This
// resolver never dials out over IPv6 (spec non-goal) but still parses and
// echoes AAAA answers it receives; they are not cached.
type AAAAData struct {
	Addr Inet6Addr
}

func (AAAAData) rrType() RRType  { return RRTypeAAAA }
func (d AAAAData) String() string { return d.Addr.String() }

// OpaqueData is the RDATA for any RRType this resolver does not decode
// structurally. The raw RDATA octets are kept so the record can still be
// packed back onto the wire unchanged.
type OpaqueData struct {
	Type RRType
	Raw  []byte
}

func (d OpaqueData) rrType() RRType  { return d.Type }
func (d OpaqueData) String() string { return fmt.Sprintf("%d bytes", len(d.Raw)) }

// ResourceRecord is a single DNS resource record as carried on the wire.
// TTL is the record's remaining lifetime in seconds as presented by its
// source message; the cache layer (internal/dns/cache) is responsible for
// converting TTL into an absolute expiry using an injected Clock.
type ResourceRecord struct {
	Name  DomainName
	Type  RRType
	Class RRClass
	TTL   uint32
	Data  RDATA
}

// NewResourceRecord constructs a ResourceRecord, defaulting Type from the
// RDATA's own type if the two disagree is a caller bug: Type always
// reflects Data's type for structured RDATA, or the explicit RRType for
// OpaqueData.
func NewResourceRecord(name DomainName, class RRClass, ttl uint32, data RDATA) ResourceRecord {
	return ResourceRecord{
		Name:  name,
		Type:  data.rrType(),
		Class: class,
		TTL:   ttl,
		Data:  data,
	}
}

// String renders the record in a log-friendly presentation form.
func (rr ResourceRecord) String() string {
	return fmt.Sprintf("%s %d %s %s %s", rr.Name, rr.TTL, rr.Class, rr.Type, rr.Data)
}
