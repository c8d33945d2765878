package wire

import (
	"encoding/binary"

	"github.com/ncsdns/resolver/internal/dns/domain"
)

// headerSize is the fixed length of a DNS message header.
const headerSize = 12

// Header bit offsets within the second 16-bit word of the header, per
// RFC 1035 section 4.1.1.
const (
	offsetQR     = 15
	offsetOpcode = 11
	offsetAA     = 10
	offsetTC     = 9
	offsetRD     = 8
	offsetRA     = 7
	offsetZ      = 4
	offsetRCode  = 0
)

func packHeader(h domain.Header) []byte {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint16(buf[0:2], h.ID)

	var flags uint16
	if h.QR {
		flags |= 1 << offsetQR
	}
	flags |= uint16(h.Opcode&0x0F) << offsetOpcode
	if h.AA {
		flags |= 1 << offsetAA
	}
	if h.TC {
		flags |= 1 << offsetTC
	}
	if h.RD {
		flags |= 1 << offsetRD
	}
	if h.RA {
		flags |= 1 << offsetRA
	}
	flags |= uint16(h.Z&0x07) << offsetZ
	flags |= uint16(h.RCode) & 0x0F
	binary.BigEndian.PutUint16(buf[2:4], flags)

	binary.BigEndian.PutUint16(buf[4:6], h.QDCount)
	binary.BigEndian.PutUint16(buf[6:8], h.ANCount)
	binary.BigEndian.PutUint16(buf[8:10], h.NSCount)
	binary.BigEndian.PutUint16(buf[10:12], h.ARCount)
	return buf
}

func parseHeader(data []byte) (domain.Header, error) {
	if len(data) < headerSize {
		return domain.Header{}, ErrTruncated
	}
	flags := binary.BigEndian.Uint16(data[2:4])
	h := domain.Header{
		ID:      binary.BigEndian.Uint16(data[0:2]),
		QR:      flags&(1<<offsetQR) != 0,
		Opcode:  uint8(flags>>offsetOpcode) & 0x0F,
		AA:      flags&(1<<offsetAA) != 0,
		TC:      flags&(1<<offsetTC) != 0,
		RD:      flags&(1<<offsetRD) != 0,
		RA:      flags&(1<<offsetRA) != 0,
		Z:       uint8(flags>>offsetZ) & 0x07,
		RCode:   domain.RCode(flags & 0x0F),
		QDCount: binary.BigEndian.Uint16(data[4:6]),
		ANCount: binary.BigEndian.Uint16(data[6:8]),
		NSCount: binary.BigEndian.Uint16(data[8:10]),
		ARCount: binary.BigEndian.Uint16(data[10:12]),
	}
	return h, nil
}
