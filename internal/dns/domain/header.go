package domain

// Header models the 12-octet DNS message header (RFC 1035 section 4.1.1).
// Z is carried for round-tripping but is always zero on messages this
// resolver emits.
type Header struct {
	ID      uint16
	QR      bool
	Opcode  uint8
	AA      bool
	TC      bool
	RD      bool
	RA      bool
	Z       uint8
	RCode   RCode
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// NewQueryHeader builds the header for an outbound iterative query: RD is
// always false (this resolver asks upstream servers to answer without
// doing their own recursion, per spec).
func NewQueryHeader(id uint16) Header {
	return Header{
		ID:      id,
		Opcode:  0,
		RD:      false,
		QDCount: 1,
	}
}

// NewReplyHeader builds the header for a reply sent back to the original
// client, echoing its ID and request recursion-desired bit.
func NewReplyHeader(queryID uint16, rd bool, rcode RCode, ancount, nscount, arcount uint16) Header {
	return Header{
		ID:      queryID,
		QR:      true,
		Opcode:  0,
		RA:      true,
		RD:      rd,
		RCode:   rcode,
		QDCount: 1,
		ANCount: ancount,
		NSCount: nscount,
		ARCount: arcount,
	}
}
