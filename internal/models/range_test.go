package models

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v2"
)

func TestRangeOrderIndependent(t *testing.T) {
	cases := []struct{ a, b string }{
		{"50", "100"},
		{"100", "50"},
		{"0", "0.5"},
		{"-3", "7"},
		{"42", "42"},
	}
	for _, c := range cases {
		r1, r2 := rng(c.a, c.b), rng(c.b, c.a)
		if r1.Min().GreaterThan(r1.Max()) {
			t.Errorf("%s: min > max", r1)
		}
		if !r1.Min().Equal(r2.Min()) || !r1.Max().Equal(r2.Max()) {
			t.Errorf("%s vs %s: bounds differ", r1, r2)
		}
		for _, v := range []string{c.a, c.b, "75", "-10", "1000"} {
			if r1.Contains(d(v)) != r2.Contains(d(v)) {
				t.Errorf("%s vs %s: contains(%s) differs", r1, r2, v)
			}
		}
	}
}

func TestRangeContainsInclusive(t *testing.T) {
	r := rng("80", "30")
	cases := []struct {
		v    string
		want bool
	}{
		{"30", true},
		{"80", true},
		{"55.5", true},
		{"29.999999", false},
		{"80.000001", false},
	}
	for _, c := range cases {
		if got := r.Contains(d(c.v)); got != c.want {
			t.Errorf("contains(%s) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestContainsAny(t *testing.T) {
	bands := []Range{rng("30", "80"), rng("90", "100")}
	if !ContainsAny(bands, d("95")) {
		t.Error("95 must be within the second band")
	}
	if ContainsAny(bands, d("85")) {
		t.Error("85 is between bands")
	}
	if ContainsAny(nil, d("1")) {
		t.Error("empty band list contains nothing")
	}
}

func TestRangeJSONRoundTrip(t *testing.T) {
	r := rng("50", "58.333333")
	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `["50","58.333333"]` {
		t.Errorf("unexpected encoding %s", raw)
	}

	var back Range
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(r) {
		t.Errorf("round trip: got %s, want %s", back, r)
	}

	var fromNumbers Range
	if err := json.Unmarshal([]byte(`[100, 50.5]`), &fromNumbers); err != nil {
		t.Fatalf("unmarshal numbers: %v", err)
	}
	if !fromNumbers.Equal(rng("100", "50.5")) {
		t.Errorf("got %s", fromNumbers)
	}

	if err := json.Unmarshal([]byte(`[1,2,3]`), &back); err == nil {
		t.Error("expected error for three bounds")
	}
}

func TestRangeYAMLRoundTrip(t *testing.T) {
	r := rng("0", "99.225")
	raw, err := yaml.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Range
	if err := yaml.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(r) {
		t.Errorf("round trip: got %s, want %s", back, r)
	}

	var plain Range
	if err := yaml.Unmarshal([]byte("[50, 100]"), &plain); err != nil {
		t.Fatalf("unmarshal plain: %v", err)
	}
	if !plain.Equal(rng("50", "100")) {
		t.Errorf("got %s", plain)
	}
}
