package domain

import "testing"

func TestNewDomainName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com.", "example.com.", false},
		{"example.com", "example.com.", false},
		{"EXAMPLE.COM.", "example.com.", false},
		{"", ".", false},
		{".", ".", false},
		{"a..b.", "", true},
		{string(make([]byte, 64)), "", true},
	}
	for _, tc := range cases {
		dn, err := NewDomainName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NewDomainName(%q): expected error, got none", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewDomainName(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got := dn.String(); got != tc.want {
			t.Errorf("NewDomainName(%q).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDomainName_Parent(t *testing.T) {
	dn := MustDomainName("www.example.com.")
	p, ok := dn.Parent()
	if !ok || p.String() != "example.com." {
		t.Fatalf("Parent() = %q, %v; want example.com., true", p, ok)
	}
	p2, ok := p.Parent()
	if !ok || p2.String() != "com." {
		t.Fatalf("Parent().Parent() = %q, %v; want com., true", p2, ok)
	}
	p3, ok := p2.Parent()
	if !ok || !p3.IsRoot() {
		t.Fatalf("Parent().Parent().Parent() = %q, %v; want root, true", p3, ok)
	}
	_, ok = p3.Parent()
	if ok {
		t.Fatalf("root.Parent() should return ok=false")
	}
}

func TestDomainName_Equal(t *testing.T) {
	a := MustDomainName("Example.COM.")
	b := MustDomainName("example.com")
	if !a.Equal(b) {
		t.Errorf("expected %q to equal %q", a, b)
	}
	c := MustDomainName("other.com.")
	if a.Equal(c) {
		t.Errorf("expected %q to not equal %q", a, c)
	}
}

func TestDomainName_WireLength(t *testing.T) {
	if got := Root.WireLength(); got != 1 {
		t.Errorf("Root.WireLength() = %d, want 1", got)
	}
	dn := MustDomainName("abc.de.")
	// 1 + "abc"(3) + 1 + "de"(2) + root(1) = 8
	if got := dn.WireLength(); got != 8 {
		t.Errorf("WireLength() = %d, want 8", got)
	}
}
