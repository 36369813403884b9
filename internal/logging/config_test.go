package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{"  WARN ", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, c := range cases {
		got, ok := parseLevel(c.raw)
		if got != c.want || ok != c.ok {
			t.Fatalf("parseLevel(%q) = (%v, %v), want (%v, %v)", c.raw, got, ok, c.want, c.ok)
		}
	}
}

func TestParseBool(t *testing.T) {
	if v, ok := parseBool("true"); !v || !ok {
		t.Fatalf("true: (%v, %v)", v, ok)
	}
	if _, ok := parseBool(""); ok {
		t.Fatalf("empty must not override")
	}
	if _, ok := parseBool("maybe"); ok {
		t.Fatalf("garbage must not override")
	}
}

func TestConfigureIsIdempotent(t *testing.T) {
	ConfigureTests()
	ConfigureTests()
	ConfigureRuntime()
}
