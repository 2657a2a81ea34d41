package log

import (
	"bytes"
	"errors"
	stdlog "log"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(stdlog.New(&buf, "", 0))
	defer SetOutput(stdlog.New(&bytes.Buffer{}, "", 0))

	SetLevel(LevelInfo)
	Debug("hidden")
	Info("shown", "model", "WAVESHARE_400X300", "width", 400)
	Error("failed", errors.New("bus gone"), "op", "refresh")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "[INFO] shown model=WAVESHARE_400X300 width=400") {
		t.Errorf("unexpected info line: %q", out)
	}
	if !strings.Contains(out, `[ERROR] failed err="bus gone" op=refresh`) {
		t.Errorf("unexpected error line: %q", out)
	}

	buf.Reset()
	SetLevel(LevelDebug)
	defer SetLevel(LevelInfo)
	if !Enabled(LevelDebug) {
		t.Error("expected debug to be enabled")
	}
	Debug("visible", "odd")
	if got := strings.TrimSpace(buf.String()); got != "[DEBUG] visible" {
		t.Errorf("unexpected debug line: %q", got)
	}
}

func TestValueQuoting(t *testing.T) {
	for _, test := range []struct {
		in   any
		want string
	}{
		{400, "400"},
		{"LANDSCAPE", "LANDSCAPE"},
		{"", `""`},
		{"lines 0-299", `"lines 0-299"`},
		{"a=b", `"a=b"`},
	} {
		if got := value(test.in); got != test.want {
			t.Errorf("value(%v) = %s, expected %s", test.in, got, test.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"Error", LevelError, false},
		{" info ", LevelInfo, false},
		{"trace", "", true},
	} {
		l, err := ParseLevel(test.in)
		if (err != nil) != test.wantErr || l != test.want {
			t.Errorf("ParseLevel(%q) = %q, %v", test.in, l, err)
		}
	}
}
