package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestMaskSensitiveString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "short", in: "abc", want: "***"},
		{name: "eight", in: "abcdefgh", want: "********"},
		{name: "long", in: "sk-1234567890abcd", want: "sk-1*********abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskSensitiveString(tt.in); got != tt.want {
				t.Fatalf("MaskSensitiveString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "json", "debug")
	l.Debug("hello", "session_id", "s1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output is not json: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "hello" || rec["session_id"] != "s1" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
