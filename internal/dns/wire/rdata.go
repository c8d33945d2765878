package wire

import (
	"encoding/binary"

	"github.com/ncsdns/resolver/internal/dns/domain"
)

// packRDATA appends the RDLENGTH-prefixed RDATA encoding of data to buf.
func packRDATA(buf []byte, data domain.RDATA) ([]byte, error) {
	lenOffset := len(buf)
	buf = append(buf, 0, 0) // placeholder RDLENGTH

	var err error
	switch d := data.(type) {
	case domain.AData:
		buf = append(buf, d.Addr.Bytes()...)
	case domain.NSData:
		buf, err = packName(buf, d.NSDName)
	case domain.CNAMEData:
		buf, err = packName(buf, d.Target)
	case domain.SOAData:
		buf, err = packName(buf, d.MName)
		if err == nil {
			buf, err = packName(buf, d.RName)
		}
		if err == nil {
			tail := make([]byte, 20)
			binary.BigEndian.PutUint32(tail[0:4], d.Serial)
			binary.BigEndian.PutUint32(tail[4:8], d.Refresh)
			binary.BigEndian.PutUint32(tail[8:12], d.Retry)
			binary.BigEndian.PutUint32(tail[12:16], d.Expire)
			binary.BigEndian.PutUint32(tail[16:20], d.Minimum)
			buf = append(buf, tail...)
		}
	case domain.AAAAData:
		buf = append(buf, d.Addr.Bytes()...)
	case domain.OpaqueData:
		buf = append(buf, d.Raw...)
	default:
		err = ErrMalformedName
	}
	if err != nil {
		return nil, err
	}

	rdLen := len(buf) - lenOffset - 2
	if rdLen > 0xFFFF {
		return nil, ErrNameTooLong
	}
	binary.BigEndian.PutUint16(buf[lenOffset:lenOffset+2], uint16(rdLen))
	return buf, nil
}

// parseRDATA decodes the RDATA for a record of the given type found at
// data[offset:offset+rdLen]. For types this resolver doesn't structurally
// decode, the raw octets are preserved in an OpaqueData.
func parseRDATA(data []byte, offset int, rdLen int, t domain.RRType) (domain.RDATA, error) {
	if offset+rdLen > len(data) {
		return nil, ErrTruncated
	}
	raw := data[offset : offset+rdLen]

	switch t {
	case domain.RRTypeA:
		addr, err := domain.InetAddrFromBytes(raw)
		if err != nil {
			return nil, ErrMalformedName
		}
		return domain.AData{Addr: addr}, nil
	case domain.RRTypeNS:
		name, _, err := parseName(data, offset)
		if err != nil {
			return nil, err
		}
		return domain.NSData{NSDName: name}, nil
	case domain.RRTypeCNAME:
		name, _, err := parseName(data, offset)
		if err != nil {
			return nil, err
		}
		return domain.CNAMEData{Target: name}, nil
	case domain.RRTypeSOA:
		mname, next, err := parseName(data, offset)
		if err != nil {
			return nil, err
		}
		rname, next, err := parseName(data, next)
		if err != nil {
			return nil, err
		}
		if next+20 > len(data) {
			return nil, ErrTruncated
		}
		return domain.SOAData{
			MName:   mname,
			RName:   rname,
			Serial:  binary.BigEndian.Uint32(data[next : next+4]),
			Refresh: binary.BigEndian.Uint32(data[next+4 : next+8]),
			Retry:   binary.BigEndian.Uint32(data[next+8 : next+12]),
			Expire:  binary.BigEndian.Uint32(data[next+12 : next+16]),
			Minimum: binary.BigEndian.Uint32(data[next+16 : next+20]),
		}, nil
	case domain.RRTypeAAAA:
		addr, err := domain.Inet6AddrFromBytes(raw)
		if err != nil {
			return nil, ErrMalformedName
		}
		return domain.AAAAData{Addr: addr}, nil
	default:
		cp := make([]byte, len(raw))
		copy(cp, raw)
		return domain.OpaqueData{Type: t, Raw: cp}, nil
	}
}
