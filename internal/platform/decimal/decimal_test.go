package decimal

import (
	"encoding/json"
	"testing"
)

func TestNewKeepsDigitsExact(t *testing.T) {
	cases := []struct{ in, out string }{
		{"120", "120"},
		{"120.10", "120.10"},
		{"0.1", "0.1"},
		{"-5.500", "-5.500"},
		{" 42 ", "42"},
	}
	for _, c := range cases {
		d, err := New(c.in)
		if err != nil {
			t.Fatalf("New(%q): %v", c.in, err)
		}
		if d.String() != c.out {
			t.Fatalf("New(%q).String() = %q, want %q", c.in, d.String(), c.out)
		}
	}
}

func TestNewRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "abc", "12..3", "NaN", "Infinity"} {
		if _, err := New(in); err == nil {
			t.Fatalf("New(%q): expected error", in)
		}
	}
}

func TestCmpIsNumericNotTextual(t *testing.T) {
	if MustNew("120.0").Cmp(MustNew("120")) != 0 {
		t.Fatal("120.0 == 120")
	}
	if MustNew("9").Cmp(MustNew("10")) != -1 {
		t.Fatal("9 < 10")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(MustNew("120.10"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Número JSON, no string.
	if string(b) != "120.10" {
		t.Fatalf("marshal = %s", b)
	}

	var d Decimal
	if err := json.Unmarshal([]byte(`"4.4"`), &d); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if d.Cmp(MustNew("4.4")) != 0 {
		t.Fatalf("got %s", d.String())
	}
	if err := json.Unmarshal([]byte(`13.9`), &d); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if d.String() != "13.9" {
		t.Fatalf("got %s", d.String())
	}
}

func TestSQLValueScan(t *testing.T) {
	v, err := MustNew("180.5").Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "180.5" {
		t.Fatalf("driver value = %v", v)
	}

	var d Decimal
	if err := d.Scan([]byte("99.9")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if d.String() != "99.9" {
		t.Fatalf("got %s", d.String())
	}
	if err := d.Scan(int64(7)); err != nil {
		t.Fatalf("scan int64: %v", err)
	}
	if d.String() != "7" {
		t.Fatalf("got %s", d.String())
	}
	if err := d.Scan(nil); err == nil {
		t.Fatal("scan nil must fail")
	}
}
