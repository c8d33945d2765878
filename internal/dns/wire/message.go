package wire

import (
	"encoding/binary"

	"github.com/ncsdns/resolver/internal/dns/domain"
)

// maxUDPMessageSize is the largest message this resolver will build for a
// client reply. EDNS(0) is a spec non-goal, so replies are never allowed to
// exceed the classic 512-octet UDP limit; see EncodeReply.
const maxUDPMessageSize = 512

func packQuestion(buf []byte, q domain.Question) ([]byte, error) {
	buf, err := packName(buf, q.Name)
	if err != nil {
		return nil, err
	}
	tail := make([]byte, 4)
	binary.BigEndian.PutUint16(tail[0:2], uint16(q.Type))
	binary.BigEndian.PutUint16(tail[2:4], uint16(q.Class))
	return append(buf, tail...), nil
}

func parseQuestion(data []byte, offset int) (domain.Question, int, error) {
	name, next, err := parseName(data, offset)
	if err != nil {
		return domain.Question{}, 0, err
	}
	if next+4 > len(data) {
		return domain.Question{}, 0, ErrTruncated
	}
	t := domain.RRType(binary.BigEndian.Uint16(data[next : next+2]))
	c := domain.RRClass(binary.BigEndian.Uint16(data[next+2 : next+4]))
	return domain.NewQuestion(name, t, c), next + 4, nil
}

func packResourceRecord(buf []byte, rr domain.ResourceRecord) ([]byte, error) {
	buf, err := packName(buf, rr.Name)
	if err != nil {
		return nil, err
	}
	head := make([]byte, 8)
	binary.BigEndian.PutUint16(head[0:2], uint16(rr.Type))
	binary.BigEndian.PutUint16(head[2:4], uint16(rr.Class))
	binary.BigEndian.PutUint32(head[4:8], rr.TTL)
	buf = append(buf, head...)
	return packRDATA(buf, rr.Data)
}

func parseResourceRecord(data []byte, offset int) (domain.ResourceRecord, int, error) {
	name, next, err := parseName(data, offset)
	if err != nil {
		return domain.ResourceRecord{}, 0, err
	}
	if next+10 > len(data) {
		return domain.ResourceRecord{}, 0, ErrTruncated
	}
	t := domain.RRType(binary.BigEndian.Uint16(data[next : next+2]))
	class := domain.RRClass(binary.BigEndian.Uint16(data[next+2 : next+4]))
	ttl := binary.BigEndian.Uint32(data[next+4 : next+8])
	rdLen := int(binary.BigEndian.Uint16(data[next+8 : next+10]))
	rdataOffset := next + 10

	rdata, err := parseRDATA(data, rdataOffset, rdLen, t)
	if err != nil {
		return domain.ResourceRecord{}, 0, err
	}
	rr := domain.ResourceRecord{Name: name, Type: t, Class: class, TTL: ttl, Data: rdata}
	return rr, rdataOffset + rdLen, nil
}

// EncodeQuery builds an outbound iterative query (RD=0) for q, identified
// by id, ready to send to a single upstream server.
func EncodeQuery(id uint16, q domain.Question) ([]byte, error) {
	msg := domain.NewQuery(id, q)
	buf := packHeader(msg.Header)
	buf, err := packQuestion(buf, q)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeQuery parses an inbound client datagram into its header and single
// question. It does not look at any records sections: client queries this
// resolver accepts never carry one (spec non-goal: multi-question queries).
func DecodeQuery(data []byte) (domain.Header, domain.Question, error) {
	h, err := parseHeader(data)
	if err != nil {
		return domain.Header{}, domain.Question{}, err
	}
	if h.QDCount != 1 {
		return domain.Header{}, domain.Question{}, ErrWrongQDCount
	}
	q, _, err := parseQuestion(data, headerSize)
	if err != nil {
		return domain.Header{}, domain.Question{}, err
	}
	return h, q, nil
}

// DecodeResponse parses a reply received from an upstream server. expectedID
// must match the response's header ID or ErrIDMismatch is returned, guarding
// against off-path spoofing and stale retransmits racing a retry.
func DecodeResponse(data []byte, expectedID uint16) (domain.Message, error) {
	h, err := parseHeader(data)
	if err != nil {
		return domain.Message{}, err
	}
	if h.ID != expectedID {
		return domain.Message{}, ErrIDMismatch
	}
	if h.QDCount != 1 {
		return domain.Message{}, ErrWrongQDCount
	}

	offset := headerSize
	q, offset, err := parseQuestion(data, offset)
	if err != nil {
		return domain.Message{}, err
	}

	answer, offset, err := parseRRList(data, offset, int(h.ANCount))
	if err != nil {
		return domain.Message{}, err
	}
	authority, offset, err := parseRRList(data, offset, int(h.NSCount))
	if err != nil {
		return domain.Message{}, err
	}
	additional, _, err := parseRRList(data, offset, int(h.ARCount))
	if err != nil {
		return domain.Message{}, err
	}

	return domain.Message{
		Header:     h,
		Question:   q,
		Answer:     answer,
		Authority:  authority,
		Additional: additional,
	}, nil
}

func parseRRList(data []byte, offset int, count int) ([]domain.ResourceRecord, int, error) {
	rrs := make([]domain.ResourceRecord, 0, count)
	for i := 0; i < count; i++ {
		rr, next, err := parseResourceRecord(data, offset)
		if err != nil {
			return nil, 0, err
		}
		rrs = append(rrs, rr)
		offset = next
	}
	return rrs, offset, nil
}

// EncodeReply builds the datagram sent back to the original client for msg.
// The question name is written once and every answer/authority/additional
// record whose owner name equals it is compressed to a pointer at that
// position, matching how real authoritative and recursive servers keep
// replies small. If the fully assembled reply would exceed 512 octets, the
// additional section is dropped — this resolver never sets the TC bit (see
// the known limitation in the external interfaces section): a client that
// needs the dropped glue will simply issue its own follow-up query. If the
// reply is still over 512 octets without it, it is cut off at 512 octets.
func EncodeReply(msg domain.Message) ([]byte, error) {
	buf, err := encodeReplyBody(msg, msg.Additional)
	if err != nil {
		return nil, err
	}
	if len(buf) > maxUDPMessageSize && len(msg.Additional) > 0 {
		buf, err = encodeReplyBody(msg, nil)
		if err != nil {
			return nil, err
		}
	}
	if len(buf) > maxUDPMessageSize {
		buf = buf[:maxUDPMessageSize]
	}
	return buf, nil
}

func encodeReplyBody(msg domain.Message, additional []domain.ResourceRecord) ([]byte, error) {
	h := msg.Header
	h.ARCount = uint16(len(additional))
	buf := packHeader(h)

	buf, err := packQuestion(buf, msg.Question)
	if err != nil {
		return nil, err
	}
	qnameOffset := headerSize

	for _, rr := range msg.Answer {
		buf, err = packRecordWithPointer(buf, rr, msg.Question.Name, qnameOffset)
		if err != nil {
			return nil, err
		}
	}
	for _, rr := range msg.Authority {
		buf, err = packRecordWithPointer(buf, rr, msg.Question.Name, qnameOffset)
		if err != nil {
			return nil, err
		}
	}
	for _, rr := range additional {
		buf, err = packRecordWithPointer(buf, rr, msg.Question.Name, qnameOffset)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// packRecordWithPointer packs rr, replacing its owner name with a
// compression pointer to qnameOffset when it equals qname.
func packRecordWithPointer(buf []byte, rr domain.ResourceRecord, qname domain.DomainName, qnameOffset int) ([]byte, error) {
	if rr.Name.Equal(qname) {
		buf = append(buf, 0xC0|byte(qnameOffset>>8), byte(qnameOffset&0xFF))
		head := make([]byte, 8)
		binary.BigEndian.PutUint16(head[0:2], uint16(rr.Type))
		binary.BigEndian.PutUint16(head[2:4], uint16(rr.Class))
		binary.BigEndian.PutUint32(head[4:8], rr.TTL)
		buf = append(buf, head...)
		return packRDATA(buf, rr.Data)
	}
	return packResourceRecord(buf, rr)
}
