package codec

import (
	"fmt"

	"github.com/oicur0t/sensorconv/pkg/models"
)

// Field describes where a LogRecord field lives inside an encoded record.
// Text fields are NUL terminated, so Width is one more than the text limit.
type Field struct {
	Name   string
	Offset int
	Width  int
	Text   bool
}

// Limit is the longest text the field can hold
func (f Field) Limit() int {
	if !f.Text {
		return 0
	}
	return f.Width - 1
}

// End is the offset of the field's last byte
func (f Field) End() int {
	return f.Offset + f.Width - 1
}

// RecordSize is the width of one encoded LogRecord, padding included.
//
// The layout matches the original tool's struct on a little-endian 64-bit
// host, so its files stay readable:
//
//	device_id[10] timestamp[30] temperature(4) humidity(4) status[8]
//	location[31] alert_level[10] pad[3] battery(4) firmware_ver[15] pad[1]
//	event_code(4)
const RecordSize = 124

var (
	DeviceID    = Field{Name: models.FieldDeviceID, Offset: 0, Width: models.MaxDeviceIDLen + 1, Text: true}
	Timestamp   = Field{Name: models.FieldTimestamp, Offset: 10, Width: models.MaxTimestampLen + 1, Text: true}
	Temperature = Field{Name: models.FieldTemperature, Offset: 40, Width: 4}
	Humidity    = Field{Name: models.FieldHumidity, Offset: 44, Width: 4}
	Status      = Field{Name: models.FieldStatus, Offset: 48, Width: models.MaxStatusLen + 1, Text: true}
	Location    = Field{Name: models.FieldLocation, Offset: 56, Width: models.MaxLocationLen + 1, Text: true}
	AlertLevel  = Field{Name: models.FieldAlertLevel, Offset: 87, Width: models.MaxAlertLevelLen + 1, Text: true}
	Battery     = Field{Name: models.FieldBattery, Offset: 100, Width: 4}
	FirmwareVer = Field{Name: models.FieldFirmwareVer, Offset: 104, Width: models.MaxFirmwareVerLen + 1, Text: true}
	EventCode   = Field{Name: models.FieldEventCode, Offset: 120, Width: 4}
)

// Layout lists the fields in on-disk order
var Layout = []Field{
	DeviceID,
	Timestamp,
	Temperature,
	Humidity,
	Status,
	Location,
	AlertLevel,
	Battery,
	FirmwareVer,
	EventCode,
}

// FieldByName looks up a field of the layout
func FieldByName(name string) (Field, bool) {
	for _, f := range Layout {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func init() {
	if err := checkLayout(); err != nil {
		panic(err)
	}
}

// checkLayout verifies fields are ordered, non-overlapping, aligned when
// numeric and that the last one ends exactly at RecordSize
func checkLayout() error {
	next := 0
	for _, f := range Layout {
		if f.Offset < next {
			return fmt.Errorf("codec: field %s at %d overlaps previous field ending at %d", f.Name, f.Offset, next)
		}
		if !f.Text && f.Offset%4 != 0 {
			return fmt.Errorf("codec: numeric field %s at %d is not 4-byte aligned", f.Name, f.Offset)
		}
		next = f.Offset + f.Width
	}
	// struct tail padding rounds up to the 4-byte alignment
	if size := (next + 3) &^ 3; size != RecordSize {
		return fmt.Errorf("codec: layout covers %d bytes, want %d", size, RecordSize)
	}
	return nil
}
