package logger

import (
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"
)

func resetLogger() {
	global = nil
	once = sync.Once{}
}

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"json debug", "debug", "json", zapcore.DebugLevel, false},
		{"console info", "info", "console", zapcore.InfoLevel, false},
		{"json warn", "warn", "json", zapcore.WarnLevel, false},
		{"json error", "error", "json", zapcore.ErrorLevel, false},
		{"unrecognized level", "not-a-level", "json", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetLogger()
			err := Init(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
			}
			if !tt.wantErr && GetLevel() != tt.wantLevel {
				t.Errorf("GetLevel() = %v, want %v", GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestInit_OnlyAppliesFirstCall(t *testing.T) {
	resetLogger()

	if err := Init("warn", "json"); err != nil {
		t.Fatalf("first Init() error = %v", err)
	}
	if err := Init("debug", "json"); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if GetLevel() != zapcore.WarnLevel {
		t.Errorf("GetLevel() = %v, want %v (Init should only take effect once)", GetLevel(), zapcore.WarnLevel)
	}
}

func TestSetLevel(t *testing.T) {
	resetLogger()
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tests := []struct {
		name      string
		level     string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"down to debug", "debug", zapcore.DebugLevel, false},
		{"up to error", "error", zapcore.ErrorLevel, false},
		{"back to info", "info", zapcore.InfoLevel, false},
		{"unrecognized level", "whatever", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SetLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if !tt.wantErr && GetLevel() != tt.wantLevel {
				t.Errorf("GetLevel() = %v, want %v", GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestL_PanicsWithoutInit(t *testing.T) {
	resetLogger()
	defer func() {
		if recover() == nil {
			t.Error("L() should panic before Init() runs")
		}
	}()
	L()
}

func TestLoggingFunctionsDoNotPanic(t *testing.T) {
	resetLogger()
	if err := Init("debug", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	Debug("debug line")
	Info("info line")
	Warn("warn line")
	Error("error line")
}

func TestWith(t *testing.T) {
	resetLogger()
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if With() == nil {
		t.Error("With() returned nil")
	}
}

func TestS(t *testing.T) {
	resetLogger()
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if S() == nil {
		t.Error("S() returned nil")
	}
}

func TestHTTPHandler(t *testing.T) {
	resetLogger()
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	handler := HTTPHandler()
	if handler == nil {
		t.Fatal("HTTPHandler() returned nil")
	}
	if handler.Level() != zapcore.InfoLevel {
		t.Errorf("HTTPHandler().Level() = %v, want %v", handler.Level(), zapcore.InfoLevel)
	}

	if err := SetLevel("error"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if handler.Level() != zapcore.ErrorLevel {
		t.Errorf("HTTPHandler() should reflect SetLevel changes, got %v", handler.Level())
	}
}

func TestSync(t *testing.T) {
	resetLogger()

	if err := Sync(); err != nil {
		t.Errorf("Sync() before Init() should be a no-op, got error = %v", err)
	}

	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	_ = Sync()
}
