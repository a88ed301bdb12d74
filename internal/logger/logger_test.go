package logger

import (
	"errors"
	"log/slog"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
	}{
		{"local", true},
		{"dev", true},
		{"prod", false},
		{"", false},
	}
	for _, tt := range tests {
		l := New(tt.env, "availability-engine")
		if got := l.Enabled(t.Context(), slog.LevelDebug); got != tt.wantDebug {
			t.Errorf("env %q: debug enabled = %v, want %v", tt.env, got, tt.wantDebug)
		}
	}
}

func TestErr(t *testing.T) {
	a := Err(errors.New("boom"))
	if a.Key != "err" || a.Value.String() != "boom" {
		t.Fatalf("attr = %v", a)
	}
}
