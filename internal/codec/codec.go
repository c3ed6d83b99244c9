package codec

import (
	"encoding/binary"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/oicur0t/sensorconv/internal/errs"
	"github.com/oicur0t/sensorconv/pkg/models"
)

// Record is a decoded LogRecord together with the exact bytes it occupies
// on disk. Sorting compares the raw bytes; building XML reads the fields.
type Record struct {
	models.LogRecord
	raw [RecordSize]byte
}

// NewRecord encodes rec and reports every text value that had to be cut
func NewRecord(rec models.LogRecord) (Record, []models.Truncation) {
	r := Record{LogRecord: rec}
	cuts := encodeInto(r.raw[:], &rec)
	// keep the struct in step with what was actually stored
	for _, c := range cuts {
		setText(&r.LogRecord, c.Field, c.Kept)
	}
	return r, cuts
}

// Bytes returns the encoded record. The slice aliases the record.
func (r *Record) Bytes() []byte {
	return r.raw[:]
}

// ByteRange returns the record's bytes at the inclusive range [start, end]
func (r *Record) ByteRange(start, end int) ([]byte, error) {
	if err := CheckRange(start, end); err != nil {
		return nil, err
	}
	return r.raw[start : end+1], nil
}

// FieldByteRange is the free-function form of Record.ByteRange
func FieldByteRange(r *Record, start, end int) ([]byte, error) {
	return r.ByteRange(start, end)
}

// CheckRange validates an inclusive byte range against the record size
func CheckRange(start, end int) error {
	switch {
	case start < 0:
		return errs.Configf("key range", "", "keyStart %d is negative", start)
	case end < start:
		return errs.Configf("key range", "", "keyEnd %d is before keyStart %d", end, start)
	case end >= RecordSize:
		return errs.Configf("key range", "", "keyEnd %d is outside the %d-byte record", end, RecordSize)
	}
	return nil
}

// Encode returns the RecordSize bytes for rec
func Encode(rec *models.LogRecord) ([]byte, []models.Truncation) {
	buf := make([]byte, RecordSize)
	cuts := encodeInto(buf, rec)
	return buf, cuts
}

func encodeInto(buf []byte, rec *models.LogRecord) []models.Truncation {
	var cuts []models.Truncation
	putText := func(f Field, s string) {
		kept := s
		// a NUL ends the stored text
		if i := strings.IndexByte(kept, 0); i >= 0 {
			kept = kept[:i]
		}
		kept = clip(kept, f.Limit())
		if len(kept) != len(s) {
			cuts = append(cuts, models.Truncation{Field: f.Name, Original: s, Kept: kept})
		}
		dst := buf[f.Offset : f.Offset+f.Width]
		n := copy(dst, kept)
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
	}
	putInt := func(f Field, v int32) {
		binary.LittleEndian.PutUint32(buf[f.Offset:], uint32(v))
	}

	putText(DeviceID, rec.DeviceID)
	putText(Timestamp, rec.Timestamp)
	binary.LittleEndian.PutUint32(buf[Temperature.Offset:], math.Float32bits(rec.Temperature))
	putInt(Humidity, rec.Humidity)
	putText(Status, rec.Status)
	putText(Location, rec.Location)
	putText(AlertLevel, rec.AlertLevel)
	putInt(Battery, rec.Battery)
	putText(FirmwareVer, rec.FirmwareVer)
	putInt(EventCode, rec.EventCode)

	return cuts
}

// Decode reads one record from the first RecordSize bytes of data
func Decode(data []byte) (Record, []models.Truncation, error) {
	if len(data) < RecordSize {
		return Record{}, nil, errs.Formatf("decode record", "", "need %d bytes, have %d", RecordSize, len(data))
	}

	var r Record
	copy(r.raw[:], data[:RecordSize])

	var cuts []models.Truncation
	getText := func(f Field) string {
		s, cut := readText(r.raw[f.Offset : f.Offset+f.Width])
		if cut {
			cuts = append(cuts, models.Truncation{
				Field:    f.Name,
				Original: string(r.raw[f.Offset : f.Offset+f.Width]),
				Kept:     s,
			})
		}
		return s
	}
	getInt := func(f Field) int32 {
		return int32(binary.LittleEndian.Uint32(r.raw[f.Offset:]))
	}

	r.DeviceID = getText(DeviceID)
	r.Timestamp = getText(Timestamp)
	r.Temperature = math.Float32frombits(binary.LittleEndian.Uint32(r.raw[Temperature.Offset:]))
	r.Humidity = getInt(Humidity)
	r.Status = getText(Status)
	r.Location = getText(Location)
	r.AlertLevel = getText(AlertLevel)
	r.Battery = getInt(Battery)
	r.FirmwareVer = getText(FirmwareVer)
	r.EventCode = getInt(EventCode)

	return r, cuts, nil
}

// DecodeAll splits data into records in file order. A length that is not
// a multiple of RecordSize is a FormatError; nothing is silently dropped.
func DecodeAll(data []byte) ([]Record, []models.Truncation, error) {
	if rem := len(data) % RecordSize; rem != 0 {
		return nil, nil, errs.Formatf("decode records", "",
			"size %d is not a multiple of the %d-byte record (%d trailing bytes)", len(data), RecordSize, rem)
	}

	count := len(data) / RecordSize
	records := make([]Record, 0, count)
	var cuts []models.Truncation
	for i := 0; i < count; i++ {
		rec, recCuts, err := Decode(data[i*RecordSize:])
		if err != nil {
			return nil, nil, err
		}
		for _, c := range recCuts {
			c.Record = i + 1
			cuts = append(cuts, c)
		}
		records = append(records, rec)
	}
	return records, cuts, nil
}

// EncodeAll concatenates the encoded records
func EncodeAll(records []Record) []byte {
	out := make([]byte, 0, len(records)*RecordSize)
	for i := range records {
		out = append(out, records[i].raw[:]...)
	}
	return out
}

// readText returns the text up to the NUL terminator. A field without a
// terminator is cut to its limit and reported.
func readText(b []byte) (string, bool) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), false
		}
	}
	return clip(string(b), len(b)-1), true
}

// clip cuts s to at most max bytes without splitting a UTF-8 sequence
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func setText(rec *models.LogRecord, field, value string) {
	switch field {
	case models.FieldDeviceID:
		rec.DeviceID = value
	case models.FieldTimestamp:
		rec.Timestamp = value
	case models.FieldStatus:
		rec.Status = value
	case models.FieldLocation:
		rec.Location = value
	case models.FieldAlertLevel:
		rec.AlertLevel = value
	case models.FieldFirmwareVer:
		rec.FirmwareVer = value
	}
}
