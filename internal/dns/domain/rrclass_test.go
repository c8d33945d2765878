package domain

import "testing"

func TestRRClass_String(t *testing.T) {
	cases := []struct {
		c    RRClass
		want string
	}{
		{RRClassIN, "IN"},
		{RRClassANY, "ANY"},
		{RRClass(7), "CLASS0"},
	}
	for _, tc := range cases {
		if got := tc.c.String(); got != tc.want {
			t.Errorf("RRClass(%d).String() = %q, want %q", tc.c, got, tc.want)
		}
	}
}
