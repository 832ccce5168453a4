package main

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"bogus": zerolog.InfoLevel,
		"":      zerolog.InfoLevel,
	}
	for in, want := range cases {
		log := newLogger(in)
		if got := log.GetLevel(); got != want {
			t.Fatalf("newLogger(%q) level = %v, want %v", in, got, want)
		}
	}
}
