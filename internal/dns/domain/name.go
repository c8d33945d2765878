// Package domain models the DNS wire concepts this resolver operates on:
// domain names, addresses, headers, questions and resource records. It owns
// no I/O; encoding and decoding live in internal/dns/wire.
package domain

import (
	"fmt"
	"strings"

	"github.com/ncsdns/resolver/internal/dns/common/utils"
)

// maxNameLength is the maximum expanded wire length of a domain name,
// including the root label, per RFC 1035 section 3.1.
const maxNameLength = 255

// maxLabelLength is the maximum length of a single label, per RFC 1035
// section 3.1.
const maxLabelLength = 63

// DomainName is an ordered sequence of labels, canonically lower-cased for
// equality and hashing. The root domain name is the empty label list.
type DomainName struct {
	labels []string
}

// Root is the DomainName for the root zone (".").
var Root = DomainName{}

// NewDomainName builds a DomainName from a presentation-form string such as
// "example.com." or "example.com" (the trailing dot is optional). The
// string is first reduced to canonical form (lower-cased, trailing dot)
// via utils.CanonicalDNSName, so labels are already case-normalized by the
// time they're split out.
func NewDomainName(s string) (DomainName, error) {
	s = strings.TrimSuffix(utils.CanonicalDNSName(s), ".")
	if s == "" {
		return Root, nil
	}
	parts := strings.Split(s, ".")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return DomainName{}, fmt.Errorf("domain name %q has an empty label", s)
		}
		if len(p) > maxLabelLength {
			return DomainName{}, fmt.Errorf("domain name %q has a label longer than %d octets", s, maxLabelLength)
		}
		labels = append(labels, p)
	}
	dn := DomainName{labels: labels}
	if dn.WireLength() > maxNameLength {
		return DomainName{}, fmt.Errorf("domain name %q exceeds %d octets expanded", s, maxNameLength)
	}
	return dn, nil
}

// MustDomainName is NewDomainName that panics on error, for constants.
func MustDomainName(s string) DomainName {
	dn, err := NewDomainName(s)
	if err != nil {
		panic(err)
	}
	return dn
}

// NewDomainNameFromLabels builds a DomainName directly from already-decoded,
// already-lower-cased labels (used by the wire codec after parsing).
func NewDomainNameFromLabels(labels []string) DomainName {
	if len(labels) == 0 {
		return Root
	}
	cp := make([]string, len(labels))
	for i, l := range labels {
		cp[i] = strings.ToLower(l)
	}
	return DomainName{labels: cp}
}

// String returns the canonical, trailing-dot presentation form, e.g.
// "example.com." or "." for the root.
func (d DomainName) String() string {
	if len(d.labels) == 0 {
		return "."
	}
	return strings.Join(d.labels, ".") + "."
}

// Labels returns the ordered label list. The returned slice must not be
// mutated by callers.
func (d DomainName) Labels() []string {
	return d.labels
}

// IsRoot reports whether d is the root domain name.
func (d DomainName) IsRoot() bool {
	return len(d.labels) == 0
}

// Equal reports case-insensitive equality (labels are already canonicalized
// on construction, so this is a direct comparison).
func (d DomainName) Equal(other DomainName) bool {
	if len(d.labels) != len(other.labels) {
		return false
	}
	for i := range d.labels {
		if d.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}

// Parent returns the DomainName with the leading (leftmost, most specific)
// label removed, and true. For the root, it returns the zero value and
// false: the root has no parent.
func (d DomainName) Parent() (DomainName, bool) {
	if d.IsRoot() {
		return DomainName{}, false
	}
	return DomainName{labels: d.labels[1:]}, true
}

// WireLength returns the length of the uncompressed wire-format encoding of
// d: each label contributes (1 + len(label)) octets, plus one octet for the
// terminating root label.
func (d DomainName) WireLength() int {
	n := 1
	for _, l := range d.labels {
		n += 1 + len(l)
	}
	return n
}
