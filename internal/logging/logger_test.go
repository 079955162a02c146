package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriterLevels(t *testing.T) {
	cases := []struct {
		level     string
		debugSeen bool
	}{
		{"debug", true},
		{"info", false},
		{"nonsense", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&buf, tc.level, false)
			log.Debug().Msg("hidden?")

			if got := buf.Len() > 0; got != tc.debugSeen {
				t.Fatalf("debug output present = %v, want %v", got, tc.debugSeen)
			}
		})
	}
}

func TestComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter(&buf, "info", false), "acceptance")
	log.Info().Msg("ready")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	if entry["component"] != "acceptance" {
		t.Fatalf("component = %v, want acceptance", entry["component"])
	}
	if entry["service"] != "chessrush" {
		t.Fatalf("service = %v, want chessrush", entry["service"])
	}
}
