package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"trainerpass/guardian/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "json", config: Config{Level: "info", Format: "json", RedactPII: true}},
		{name: "text", config: Config{Level: "debug", Format: "text"}},
		{name: "console", config: Config{Level: "warn", Format: "console", RedactPII: true}},
		{name: "defaults", config: Config{}},
		{name: "invalid level", config: Config{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger.Slog() == nil {
				t.Error("expected slog logger")
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Format: "json", RedactPII: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("contact from trainer@example.com",
		"note", "call 07911 123456 or ping 10.0.0.1",
		"match", "kill myself",
		"rule_id", "self-harm",
		"error", errors.New("lookup for bob@example.org failed"),
	)

	entry := decodeLine(t, &buf)
	if msg := entry["msg"].(string); strings.Contains(msg, "trainer@example.com") {
		t.Errorf("email not redacted from message: %q", msg)
	}
	note := entry["note"].(string)
	if strings.Contains(note, "07911") || strings.Contains(note, "10.0.0.1") {
		t.Errorf("phone or ip not redacted: %q", note)
	}
	if !strings.Contains(note, "[phone]") || !strings.Contains(note, "[ip]") {
		t.Errorf("expected replacement markers, got %q", note)
	}
	if entry["match"] != "ki***" {
		t.Errorf("expected masked match, got %v", entry["match"])
	}
	if entry["rule_id"] != "self-harm" {
		t.Errorf("rule_id should pass through, got %v", entry["rule_id"])
	}
	if e := entry["error"].(string); strings.Contains(e, "bob@example.org") {
		t.Errorf("email not redacted from error: %q", e)
	}
}

func TestLogger_RedactionDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("event", "note", "call 07911 123456", "token", "abcdefgh")

	entry := decodeLine(t, &buf)
	if entry["note"] != "call 07911 123456" {
		t.Errorf("value redacted while disabled: %v", entry["note"])
	}
	if entry["token"] != "ab***" {
		t.Errorf("sensitive keys are always masked, got %v", entry["token"])
	}
}

func TestLogger_WithAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", RedactPII: true, Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("component", "test", "contact", "a@b.io").
		Slog().Info("grouped", "submission", map[string]string{"ignored": "x"})
	entry := decodeLine(t, &buf)
	if entry["component"] != "test" {
		t.Errorf("expected component attribute, got %v", entry["component"])
	}
	if entry["contact"] != "[email]" {
		t.Errorf("expected redacted With attribute, got %v", entry["contact"])
	}

	buf.Reset()
	logger.Slog().WithGroup("req").Info("nested", "match", "faggot")
	entry = decodeLine(t, &buf)
	group, ok := entry["req"].(map[string]any)
	if !ok {
		t.Fatalf("expected req group, got %v", entry)
	}
	if group["match"] != "fa***" {
		t.Errorf("expected masked match in group, got %v", group["match"])
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithAuthor(ctx, "ash")
	ctx = WithSource(ctx, "bio")
	logger.InfoContext(ctx, "scanned")

	entry := decodeLine(t, &buf)
	if entry["request_id"] != "req-123" || entry["author"] != "ash" || entry["source"] != "bio" {
		t.Errorf("context fields missing: %v", entry)
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestRedactor_CustomPatterns(t *testing.T) {
	r := NewRedactor([]config.RedactPattern{
		{Name: "discord", Pattern: `\b\w+#\d{4}\b`, Replacement: "[discord]"},
		{Name: "broken", Pattern: `(`, Replacement: "x"},
	})

	if got := r.RedactString("add me misty#1234"); got != "add me [discord]" {
		t.Errorf("RedactString() = %q", got)
	}
	if got := r.RedactString("Authorization: Bearer abc.def"); got != "Authorization: Bearer ***" {
		t.Errorf("RedactString() = %q", got)
	}
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":            "***",
		"kys":         "***",
		"kill myself": "ki***",
		"ñandú!":      "ña***",
	}
	for in, want := range tests {
		if got := Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
