package wire

import (
	"encoding/binary"
	"strings"

	"github.com/ncsdns/resolver/internal/dns/domain"
)

// maxPointerHops bounds the number of compression-pointer indirections a
// single name decode will follow. RFC 1035 messages this resolver handles
// are at most 512 octets (no EDNS), so a legitimately compressed name can
// never need more than a handful of hops; 32 is comfortably above that and
// well short of letting a crafted pointer cycle hang the decoder.
const maxPointerHops = 32

const maxLabelLen = 63
const maxNameLen = 255

// packName appends the wire-format encoding of name to buf with no
// compression, returning an error if any label or the whole name is too
// long to represent.
func packName(buf []byte, name domain.DomainName) ([]byte, error) {
	if name.WireLength() > maxNameLen {
		return nil, ErrNameTooLong
	}
	for _, label := range name.Labels() {
		if len(label) > maxLabelLen {
			return nil, ErrLabelTooLong
		}
		buf = append(buf, byte(len(label)))
		buf = append(buf, label...)
	}
	buf = append(buf, 0)
	return buf, nil
}

// parseName decodes a domain name starting at offset in data, following
// compression pointers as needed, and returns the decoded name plus the
// offset immediately after the name's representation at its original
// position (which, per RFC 1035 section 4.1.4, is always the offset right
// after either the terminating zero octet or the two-octet pointer that
// was encountered first — never the length of any name a pointer jumps to).
func parseName(data []byte, offset int) (domain.DomainName, int, error) {
	var labels []string
	consumed := -1
	hops := 0

	for {
		if offset >= len(data) {
			return domain.DomainName{}, 0, ErrTruncated
		}
		length := int(data[offset])

		if length == 0 {
			offset++
			if consumed < 0 {
				consumed = offset
			}
			break
		}

		if length&0xC0 == 0xC0 {
			if offset+1 >= len(data) {
				return domain.DomainName{}, 0, ErrTruncated
			}
			hops++
			if hops > maxPointerHops {
				return domain.DomainName{}, 0, ErrPointerLoop
			}
			ptr := int(binary.BigEndian.Uint16(data[offset:offset+2]) & 0x3FFF)
			if consumed < 0 {
				consumed = offset + 2
			}
			if ptr >= len(data) {
				return domain.DomainName{}, 0, ErrMalformedName
			}
			offset = ptr
			continue
		}

		offset++
		if offset+length > len(data) {
			return domain.DomainName{}, 0, ErrTruncated
		}
		if length > maxLabelLen {
			return domain.DomainName{}, 0, ErrLabelTooLong
		}
		labels = append(labels, strings.ToLower(string(data[offset:offset+length])))
		offset += length
	}

	dn := domain.NewDomainNameFromLabels(labels)
	if dn.WireLength() > maxNameLen {
		return domain.DomainName{}, 0, ErrNameTooLong
	}
	return dn, consumed, nil
}
