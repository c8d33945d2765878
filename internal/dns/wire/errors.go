// Package wire encodes and decodes DNS messages to and from their RFC 1035
// binary representation. It is the only package in this module that knows
// about byte offsets, compression pointers, or network byte order.
package wire

import "errors"

// Sentinel errors the resolver engine and request loop use to distinguish
// "this datagram was malformed, move on" from a harder failure.
var (
	ErrTruncated     = errors.New("wire: message truncated")
	ErrMalformedName = errors.New("wire: malformed domain name")
	ErrPointerLoop   = errors.New("wire: compression pointer loop or excessive indirection")
	ErrLabelTooLong  = errors.New("wire: label exceeds 63 octets")
	ErrNameTooLong   = errors.New("wire: domain name exceeds 255 octets expanded")
	ErrWrongQDCount  = errors.New("wire: message does not carry exactly one question")
	ErrIDMismatch    = errors.New("wire: response ID does not match the query ID")
)
