package models

// LogRecord is a single sensor reading as stored in a binary record file
type LogRecord struct {
	DeviceID    string  `json:"device_id" yaml:"device_id"`
	Timestamp   string  `json:"timestamp" yaml:"timestamp"`
	Temperature float32 `json:"temperature" yaml:"temperature"`
	Humidity    int32   `json:"humidity" yaml:"humidity"`
	Status      string  `json:"status" yaml:"status"`
	Location    string  `json:"location" yaml:"location"`
	AlertLevel  string  `json:"alert_level" yaml:"alert_level"`
	Battery     int32   `json:"battery" yaml:"battery"`
	FirmwareVer string  `json:"firmware_ver" yaml:"firmware_ver"`
	EventCode   int32   `json:"event_code" yaml:"event_code"`
}

// Text field names, shared by the codec, the CSV parser and log output
const (
	FieldDeviceID    = "device_id"
	FieldTimestamp   = "timestamp"
	FieldTemperature = "temperature"
	FieldHumidity    = "humidity"
	FieldStatus      = "status"
	FieldLocation    = "location"
	FieldAlertLevel  = "alert_level"
	FieldBattery     = "battery"
	FieldFirmwareVer = "firmware_ver"
	FieldEventCode   = "event_code"
)

// FieldOrder is the column order of the CSV input and of the binary layout
var FieldOrder = []string{
	FieldDeviceID,
	FieldTimestamp,
	FieldTemperature,
	FieldHumidity,
	FieldStatus,
	FieldLocation,
	FieldAlertLevel,
	FieldBattery,
	FieldFirmwareVer,
	FieldEventCode,
}

// Maximum text lengths in bytes, excluding the NUL terminator
const (
	MaxDeviceIDLen    = 9
	MaxTimestampLen   = 29
	MaxStatusLen      = 7
	MaxLocationLen    = 30
	MaxAlertLevelLen  = 9
	MaxFirmwareVerLen = 14
)

// Truncation records a text value that was cut to fit its field
type Truncation struct {
	Record   int    `yaml:"record"`
	Field    string `yaml:"field"`
	Original string `yaml:"original"`
	Kept     string `yaml:"kept"`
}
