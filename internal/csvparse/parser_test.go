package csvparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/oicur0t/sensorconv/internal/errs"
	"github.com/oicur0t/sensorconv/pkg/models"
	"go.uber.org/zap/zaptest"
)

const header = "device_id,timestamp,temperature,humidity,status,location,alert_level,battery,firmware_ver,event_code"

func TestDelimiterAndLineEnding(t *testing.T) {
	for opt, want := range map[int]byte{1: ',', 2: '\t', 3: ';'} {
		if got, err := Delimiter(opt); err != nil || got != want {
			t.Errorf("Delimiter(%d) = %q, %v; want %q", opt, got, err, want)
		}
	}
	for opt, want := range map[int]string{1: "\r\n", 2: "\n", 3: "\r"} {
		if got, err := LineEnding(opt); err != nil || got != want {
			t.Errorf("LineEnding(%d) = %q, %v; want %q", opt, got, err, want)
		}
	}
	if _, err := NewParser(4, 2, zaptest.NewLogger(t)); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("NewParser(4, 2) error = %v, want ConfigError", err)
	}
	if _, err := NewParser(1, 0, zaptest.NewLogger(t)); !errors.Is(err, errs.ErrConfig) {
		t.Errorf("NewParser(1, 0) error = %v, want ConfigError", err)
	}
}

func TestParseSeparatorsAndLineEndings(t *testing.T) {
	want := []models.LogRecord{
		{
			DeviceID:    "dev1",
			Timestamp:   "2024-03-01T12:00:00",
			Temperature: 21.5,
			Humidity:    40,
			Status:      "OK",
			Location:    "Lab A",
			AlertLevel:  "LOW",
			Battery:     87,
			FirmwareVer: "v1.2",
			EventCode:   1,
		},
		{DeviceID: "dev2", Temperature: 19, Humidity: 55, Status: "WARN", EventCode: 2},
	}
	lines := []string{
		header,
		"dev1|2024-03-01T12:00:00|21.5|40|OK|Lab A|LOW|87|v1.2|1",
		"dev2||19.00|55|WARN||||| 2",
	}

	for sepOpt, sep := range map[int]string{1: ",", 2: "\t", 3: ";"} {
		for osOpt, eol := range map[int]string{1: "\r\n", 2: "\n", 3: "\r"} {
			input := strings.ReplaceAll(strings.Join(lines, eol), "|", sep)

			p, err := NewParser(sepOpt, osOpt, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("NewParser: %v", err)
			}
			rows, err := p.Parse(strings.NewReader(input), "input.csv")
			if err != nil {
				t.Fatalf("separator %d opsys %d: Parse: %v", sepOpt, osOpt, err)
			}
			if len(rows) != len(want) {
				t.Fatalf("separator %d opsys %d: got %d rows, want %d", sepOpt, osOpt, len(rows), len(want))
			}
			for i := range want {
				if rows[i].Record != want[i] {
					t.Errorf("separator %d opsys %d row %d:\n got %+v\nwant %+v", sepOpt, osOpt, i, rows[i].Record, want[i])
				}
			}
			if rows[0].Line != 2 || rows[1].Line != 3 {
				t.Errorf("line numbers = %d, %d; want 2, 3", rows[0].Line, rows[1].Line)
			}
		}
	}
}

func TestParseSkipsBlankLinesAndTrailingTerminator(t *testing.T) {
	input := header + "\n\nd1,,1,1,,,,1,,1\n\n"
	p, _ := NewParser(1, 2, zaptest.NewLogger(t))

	rows, err := p.Parse(strings.NewReader(input), "input.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 1 || rows[0].Record.DeviceID != "d1" {
		t.Errorf("rows = %+v, want one row for d1", rows)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	p, _ := NewParser(1, 2, zaptest.NewLogger(t))
	rows, err := p.Parse(strings.NewReader(header+"\n"), "input.csv")
	if err != nil || len(rows) != 0 {
		t.Errorf("Parse(header only) = %d rows, %v", len(rows), err)
	}
}

func TestParseMissingAndExtraColumns(t *testing.T) {
	input := header + "\nshort,ts\nlong,,,,,,,,,7,extra,more\n"
	p, _ := NewParser(1, 2, zaptest.NewLogger(t))

	rows, err := p.Parse(strings.NewReader(input), "input.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Record != (models.LogRecord{DeviceID: "short", Timestamp: "ts"}) {
		t.Errorf("short row = %+v", rows[0].Record)
	}
	if rows[1].Record.EventCode != 7 {
		t.Errorf("long row event_code = %d, want 7", rows[1].Record.EventCode)
	}
}

func TestParseBadNumber(t *testing.T) {
	input := header + "\ndev1,,warm,40,,,,,,1\n"
	p, _ := NewParser(1, 2, zaptest.NewLogger(t))

	_, err := p.Parse(strings.NewReader(input), "input.csv")
	if !errors.Is(err, errs.ErrFormat) {
		t.Fatalf("error = %v, want FormatError", err)
	}
	if !strings.Contains(err.Error(), "line 2 column 3") {
		t.Errorf("error %q does not name the line and column", err)
	}
}

func TestParseLineEndingMismatch(t *testing.T) {
	lines := []string{header, "d1,,1,1,,,,1,,1", "d2,ts"}

	t.Run("CRLF mode reads LF file", func(t *testing.T) {
		p, _ := NewParser(1, 1, zaptest.NewLogger(t))
		rows, err := p.Parse(strings.NewReader(strings.Join(lines, "\n")+"\n"), "input.csv")
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if len(rows) != 2 || rows[1].Record.DeviceID != "d2" {
			t.Errorf("rows = %+v, want d1 and d2", rows)
		}
	})

	t.Run("LF mode reads CRLF file", func(t *testing.T) {
		p, _ := NewParser(1, 2, zaptest.NewLogger(t))
		rows, err := p.Parse(strings.NewReader(strings.Join(lines, "\r\n")), "input.csv")
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if len(rows) != 2 || rows[0].Record.EventCode != 1 || rows[1].Record.Timestamp != "ts" {
			t.Fatalf("rows = %+v", rows)
		}
	})

	for _, tt := range []struct {
		name  string
		opsys int
		eol   string
	}{
		{"CR mode on LF file", 3, "\n"},
		{"CR mode on CRLF file", 3, "\r\n"},
		{"LF mode on CR file", 2, "\r"},
		{"CRLF mode on CR file", 1, "\r"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := NewParser(1, tt.opsys, zaptest.NewLogger(t))
			input := strings.Join([]string{header, "d1,,1,1,,,,1,,1"}, tt.eol)
			rows, err := p.Parse(strings.NewReader(input), "input.csv")
			if !errors.Is(err, errs.ErrFormat) {
				t.Errorf("Parse = %d rows, %v; want FormatError", len(rows), err)
			}
		})
	}
}

func TestParseLineTooLong(t *testing.T) {
	input := header + "\n" + strings.Repeat("x", maxLineSize+1) + "\n"
	p, _ := NewParser(1, 2, zaptest.NewLogger(t))

	_, err := p.Parse(strings.NewReader(input), "input.csv")
	if !errors.Is(err, errs.ErrFormat) {
		t.Fatalf("error = %v, want FormatError", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the line", err)
	}
}
