package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"parler/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		file    *config.LogToFileConfig
		wantErr bool
	}{
		{
			name: "valid config with error level",
			cfg:  &config.LoggingConfig{Level: "error"},
		},
		{
			name: "valid config with debug level",
			cfg:  &config.LoggingConfig{Level: "debug"},
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
		{
			name: "file sink disabled ignores path",
			cfg:  &config.LoggingConfig{Level: "info"},
			file: &config.LogToFileConfig{Enabled: false, LogFile: ""},
		},
		{
			name:    "file sink enabled without path",
			cfg:     &config.LoggingConfig{Level: "info"},
			file:    &config.LogToFileConfig{Enabled: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, tt.file)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestFileSinkRecordsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parler.log")

	log, err := New(&config.LoggingConfig{Level: "error"}, &config.LogToFileConfig{
		Enabled: true,
		LogFile: path,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	log.DebugWithFields("sending request", map[string]interface{}{"path": "/feed"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "sending request") {
		t.Errorf("Expected debug record in file sink, got %q", string(data))
	}
	if !strings.Contains(string(data), `"path":"/feed"`) {
		t.Errorf("Expected field in file sink, got %q", string(data))
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "warn")
	if err != nil {
		t.Fatalf("NewWithWriter() failed: %v", err)
	}

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("Messages below warn should be dropped, got %q", output)
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Errorf("Expected warn and error messages, got %q", output)
	}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithWriter(&buf, "debug")

	log.
		WithField("field1", "value1").
		WithFields(map[string]interface{}{
			"field2": 2,
			"field3": true,
		}).
		InfoWithFields("chained fields", map[string]interface{}{
			"took": 5 * time.Millisecond,
		})

	output := buf.String()
	for _, want := range []string{"chained fields", `"field1":"value1"`, `"field2":2`, `"field3":true`, `"took"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output %q", want, output)
		}
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithWriter(&buf, "debug")

	if log.WithError(nil) != log {
		t.Error("WithError(nil) should return the same logger")
	}

	log.WithError(errors.New("boom")).Error("request failed")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("Expected error field, got %q", buf.String())
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log, _ := NewWithWriter(&buf, "debug")

	_ = log.WithField("child", "yes")
	log.Info("parent message")

	if strings.Contains(buf.String(), "child") {
		t.Errorf("Parent logger picked up child field: %q", buf.String())
	}
}

func TestGlobalLogger(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "disabled"}, nil); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if GetLogger() == nil {
		t.Error("GetLogger() returned nil")
	}
	Nop().WithField("k", "v").Error("discarded")
}

func TestTestLogger(t *testing.T) {
	log := NewTestLogger()

	log.WithField("endpoint", "/feed").WarnWithFields("Status: 502", map[string]interface{}{"attempt": 1})
	log.WithError(errors.New("boom")).Error("failed")

	if !log.HasMessage("Status: 502") {
		t.Error("Expected warning to be captured")
	}
	warnings := log.GetMessagesByLevel("WARN")
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Fields["endpoint"] != "/feed" || warnings[0].Fields["attempt"] != 1 {
		t.Errorf("Unexpected fields: %v", warnings[0].Fields)
	}
	if !log.HasError() {
		t.Error("Expected error to be captured")
	}

	log.Clear()
	if len(log.GetMessages()) != 0 || log.String() != "" {
		t.Error("Expected Clear to drop everything")
	}
}
