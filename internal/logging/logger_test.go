package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WARN, false)
	l.SetOutput(&buf)

	l.Info("hidden")
	l.Warn("shown", map[string]interface{}{"benchmark": "bench_1"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO should be filtered at WARN level, got %q", out)
	}
	if !strings.Contains(out, "WARN: shown benchmark=bench_1") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestJSONFormatAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(DEBUG, true)
	l.SetOutput(&buf)

	l.WithField("component", "script").Debug("registered", map[string]interface{}{"export": "exportBench"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "DEBUG" || entry.Message != "registered" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.Fields["component"] != "script" || entry.Fields["export"] != "exportBench" {
		t.Errorf("fields not merged: %+v", entry.Fields)
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(INFO, false)
	parent.SetOutput(&buf)

	_ = parent.WithField("component", "server")
	parent.Info("plain")

	if strings.Contains(buf.String(), "component") {
		t.Errorf("parent logger picked up child field: %q", buf.String())
	}
}

func TestFatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(INFO, false)
	l.SetOutput(&buf)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("bye")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"WARNING": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	if l.Level() <= FATAL {
		t.Errorf("discard logger should filter every level")
	}
}
