package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"metaproxy/internal/models"
	"metaproxy/internal/version"
)

var testInfo = version.Info{
	Version:    "1.4.0",
	GitCommit:  "abc1234",
	BuildDate:  "2026-01-01T00:00:00Z",
	InstanceID: "instance-1",
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  slog.Level
		expectErr bool
	}{
		{name: "debug", input: "debug", expected: slog.LevelDebug},
		{name: "info", input: "info", expected: slog.LevelInfo},
		{name: "warn", input: "warn", expected: slog.LevelWarn},
		{name: "error", input: "error", expected: slog.LevelError},
		{name: "uppercase", input: "DEBUG", expected: slog.LevelDebug},
		{name: "invalid", input: "verbose", expectErr: true},
		{name: "empty", input: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error for input %q, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error for input %q: %v", tt.input, err)
				return
			}
			if level != tt.expected {
				t.Errorf("expected level %v, got %v", tt.expected, level)
			}
		})
	}
}

func TestSetupStdoutAndStderr(t *testing.T) {
	for _, output := range []string{"stdout", "stderr"} {
		cfg := models.LoggingConfig{Level: "info", Format: "json", Output: output}

		logger, closer, err := Setup(cfg, testInfo)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", output, err)
		}
		if closer != nil {
			t.Errorf("%s: expected nil closer", output)
		}
		if logger == nil {
			t.Fatalf("%s: expected non-nil logger", output)
		}
	}
}

func TestSetupFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "metaproxy.log")

	cfg := models.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, closer, err := Setup(cfg, testInfo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closer == nil {
		t.Fatal("expected non-nil closer for file output")
	}
	defer closer.Close()

	logger.Info("Catalog lookup", "catalog", "tmdb")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, data)
	}
	want := map[string]string{
		"msg":         "Catalog lookup",
		"catalog":     "tmdb",
		"version":     "1.4.0",
		"git_commit":  "abc1234",
		"instance_id": "instance-1",
	}
	for key, value := range want {
		if record[key] != value {
			t.Errorf("expected %s=%q, got %v", key, value, record[key])
		}
	}
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.LoggingConfig
	}{
		{"file without path", models.LoggingConfig{Level: "info", Format: "json", Output: "file"}},
		{"unwritable path", models.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: "/nonexistent/directory/metaproxy.log"}},
		{"invalid level", models.LoggingConfig{Level: "invalid", Format: "json", Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Setup(tt.cfg, testInfo); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "text", slog.LevelInfo, testInfo)

	logger.Info("Server started", "port", 3000)

	output := buf.String()
	if !strings.Contains(output, "msg=\"Server started\"") || !strings.Contains(output, "port=3000") {
		t.Errorf("unexpected text output: %s", output)
	}
}

func TestRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", slog.LevelDebug, testInfo)

	logger.Debug("Token request",
		"client_secret", "s3cr3t",
		"Authorization", "Bearer abc",
		"api_key", "tmdb-key",
		"client_id", "visible",
	)

	output := buf.String()
	for _, secret := range []string{"s3cr3t", "Bearer abc", "tmdb-key"} {
		if strings.Contains(output, secret) {
			t.Errorf("secret %q leaked into log output: %s", secret, output)
		}
	}
	if !strings.Contains(output, "visible") {
		t.Errorf("non-sensitive attribute missing: %s", output)
	}
	if strings.Count(output, redacted) != 3 {
		t.Errorf("expected 3 redactions, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for empty context")
	}

	var buf bytes.Buffer
	scoped := New(&buf, "json", slog.LevelInfo, testInfo).With("request_id", "req-1")
	ctx := WithContext(context.Background(), scoped)

	FromContext(ctx).Info("Handled")
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("request-scoped attribute missing: %s", buf.String())
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "text", slog.LevelWarn, testInfo)

	logger.Info("should not appear")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Error("info message should have been filtered by warn level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("warn message should have appeared")
	}
}
