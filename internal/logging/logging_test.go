package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestMaskCredential(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdef", "ab****"},
		{"abcdefghijkl", "abcd****ijkl"},
	}
	for _, tt := range tests {
		if got := MaskCredential(tt.in); got != tt.want {
			t.Errorf("MaskCredential(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedact(t *testing.T) {
	in := "login failed: password=hunter22secret XSRF-TOKEN=eyJpdiI6Ik1234567890"
	out := Redact(in)
	if strings.Contains(out, "hunter22secret") {
		t.Errorf("password leaked: %s", out)
	}
	if strings.Contains(out, "eyJpdiI6Ik1234567890") {
		t.Errorf("token leaked: %s", out)
	}
	if !strings.HasPrefix(out, "login failed: password=") {
		t.Errorf("unexpected prefix: %s", out)
	}

	plain := "GET /api/journal?date=2026-02-05"
	if Redact(plain) != plain {
		t.Errorf("non-sensitive text changed: %s", Redact(plain))
	}
}

func TestRedactFields(t *testing.T) {
	out := RedactFields(map[string]interface{}{
		"email":    "a@b.co",
		"password": "supersecretvalue",
		"remember": true,
	})
	if out["email"] != "a@b.co" {
		t.Errorf("email should be untouched, got %v", out["email"])
	}
	if out["password"] == "supersecretvalue" {
		t.Error("password should be masked")
	}
	if out["remember"] != true {
		t.Errorf("bool should be untouched, got %v", out["remember"])
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Error("debug level not parsed")
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Error("unknown level should default to info")
	}
	if ValidLevel("bogus") || !ValidLevel("warn") {
		t.Error("ValidLevel mismatch")
	}
}

func TestFromContext(t *testing.T) {
	if l := FromContext(context.Background()); l.GetLevel() != zerolog.Disabled {
		t.Error("expected nop logger for empty context")
	}

	logger := NewLoggerWithConfig(LogConfig{Level: "info"})
	ctx := WithLogger(context.Background(), logger)
	got := FromContext(ctx)
	got.Info().Msg("ok")
}

func TestLogJournalSaved_CarriesDate(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(zerolog.New(&buf), "tradejournal journal add")
	ctx := WithLogger(context.Background(), logger)

	LogJournalSaved(WithDate(FromContext(ctx), "2026-02-05"), "good")

	out := buf.String()
	for _, want := range []string{`"date":"2026-02-05"`, `"mood":"good"`, `"operation":"tradejournal journal add"`, `"event":"journal_saved"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}
