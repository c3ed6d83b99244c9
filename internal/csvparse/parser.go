package csvparse

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oicur0t/sensorconv/internal/errs"
	"github.com/oicur0t/sensorconv/pkg/models"
	"go.uber.org/zap"
)

// maxLineSize bounds a single CSV line
const maxLineSize = 1 << 20

// Delimiter returns the field delimiter for the -separator option:
// 1 comma, 2 tab, 3 semicolon
func Delimiter(option int) (byte, error) {
	switch option {
	case 1:
		return ',', nil
	case 2:
		return '\t', nil
	case 3:
		return ';', nil
	}
	return 0, fmt.Errorf("invalid separator option %d, want 1, 2 or 3", option)
}

// LineEnding returns the line terminator for the -opsys option:
// 1 Windows (CRLF), 2 Linux (LF), 3 classic Mac (CR). The CRLF and LF
// modes both split on LF and drop a trailing CR, so either file reads
// the same under both.
func LineEnding(option int) (string, error) {
	switch option {
	case 1:
		return "\r\n", nil
	case 2:
		return "\n", nil
	case 3:
		return "\r", nil
	}
	return "", fmt.Errorf("invalid opsys option %d, want 1, 2 or 3", option)
}

// Row is one parsed data line
type Row struct {
	Line   int
	Record models.LogRecord
}

// Parser reads delimited sensor logs. Fields are not quoted; the first
// line is a header and is skipped.
type Parser struct {
	delimiter  byte
	lineEnding string
	logger     *zap.Logger
}

// NewParser creates a parser from the CLI separator and opsys options
func NewParser(separator, opsys int, logger *zap.Logger) (*Parser, error) {
	delimiter, err := Delimiter(separator)
	if err != nil {
		return nil, errs.Config("csv parser", "", err)
	}
	lineEnding, err := LineEnding(opsys)
	if err != nil {
		return nil, errs.Config("csv parser", "", err)
	}

	return &Parser{
		delimiter:  delimiter,
		lineEnding: lineEnding,
		logger:     logger,
	}, nil
}

// Parse reads every data line from r. Blank lines are skipped. name is
// only used in error messages.
func (p *Parser) Parse(r io.Reader, name string) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.IO("read csv", name, err)
	}
	if err := p.checkLineEnding(data); err != nil {
		return nil, errs.Format("parse csv", name, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	if p.lineEnding == "\r" {
		scanner.Split(splitOn([]byte("\r")))
	} else {
		scanner.Split(splitOn([]byte("\n")))
	}

	var rows []Row
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		rec, err := p.parseLine(text, line)
		if err != nil {
			return nil, errs.Format("parse csv", name, err)
		}
		rows = append(rows, Row{Line: line, Record: rec})
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, errs.Formatf("parse csv", name, "line %d is longer than %d bytes", line+1, maxLineSize)
		}
		return nil, errs.IO("read csv", name, err)
	}

	if len(rows) == 0 && len(bytes.TrimSpace(data)) > 0 {
		p.logger.Warn("No data records after the header",
			zap.String("file", name),
			zap.Int("lines", line))
	}

	p.logger.Debug("CSV parsed",
		zap.String("file", name),
		zap.Int("lines", line),
		zap.Int("records", len(rows)))

	return rows, nil
}

// checkLineEnding rejects input whose lines end in a terminator the
// configured mode would never split on
func (p *Parser) checkLineEnding(data []byte) error {
	hasLF := bytes.IndexByte(data, '\n') >= 0
	hasCR := bytes.IndexByte(data, '\r') >= 0
	if p.lineEnding == "\r" {
		if hasLF {
			return fmt.Errorf("input has LF line endings, expected %q", p.lineEnding)
		}
		return nil
	}
	if !hasLF && hasCR {
		return fmt.Errorf("input has CR line endings, expected %q", p.lineEnding)
	}
	return nil
}

func (p *Parser) parseLine(text string, line int) (models.LogRecord, error) {
	var rec models.LogRecord
	fields := strings.Split(text, string(p.delimiter))

	if len(fields) > len(models.FieldOrder) {
		p.logger.Warn("Ignoring extra columns",
			zap.Int("line", line),
			zap.Int("columns", len(fields)),
			zap.Int("expected", len(models.FieldOrder)))
		fields = fields[:len(models.FieldOrder)]
	}

	for i, value := range fields {
		name := models.FieldOrder[i]
		var err error
		switch name {
		case models.FieldDeviceID:
			rec.DeviceID = value
		case models.FieldTimestamp:
			rec.Timestamp = value
		case models.FieldTemperature:
			rec.Temperature, err = parseFloat(value)
		case models.FieldHumidity:
			rec.Humidity, err = parseInt(value)
		case models.FieldStatus:
			rec.Status = value
		case models.FieldLocation:
			rec.Location = value
		case models.FieldAlertLevel:
			rec.AlertLevel = value
		case models.FieldBattery:
			rec.Battery, err = parseInt(value)
		case models.FieldFirmwareVer:
			rec.FirmwareVer = value
		case models.FieldEventCode:
			rec.EventCode, err = parseInt(value)
		}
		if err != nil {
			return rec, fmt.Errorf("line %d column %d (%s): %w", line, i+1, name, err)
		}
	}

	return rec, nil
}

// empty numeric fields read as zero
func parseInt(s string) (int32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func parseFloat(s string) (float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

// splitOn splits input on sep; a trailing line without sep is still returned
func splitOn(sep []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, sep); i >= 0 {
			return i + len(sep), data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
