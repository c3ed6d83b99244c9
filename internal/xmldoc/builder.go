package xmldoc

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"github.com/oicur0t/sensorconv/internal/codec"
	"github.com/oicur0t/sensorconv/internal/errs"
	"go.uber.org/zap"
)

// DefaultTimestamp replaces an empty stored timestamp
const DefaultTimestamp = "2000-01-01T00:00:00"

// Builder maps sorted records to an XML document
type Builder struct {
	timestampFallback string
	logger            *zap.Logger
}

// NewBuilder creates a builder. An empty fallback selects DefaultTimestamp.
func NewBuilder(timestampFallback string, logger *zap.Logger) *Builder {
	if timestampFallback == "" {
		timestampFallback = DefaultTimestamp
	}
	return &Builder{
		timestampFallback: timestampFallback,
		logger:            logger,
	}
}

// RootName derives the root element name from the output path: the base
// name with its extension removed
func RootName(outputPath string) (string, error) {
	base := filepath.Base(outputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if !isXMLName(name) {
		return "", errs.Configf("root element", outputPath, "%q is not a valid XML element name", name)
	}
	return name, nil
}

// Build creates one <entry> per record, in the order given. Ids start at 1.
// Field text is copied as is; the serializer rejects what cannot be encoded.
func (b *Builder) Build(rootName string, records []codec.Record) (*etree.Document, error) {
	if !isXMLName(rootName) {
		return nil, errs.Configf("build document", "", "%q is not a valid XML element name", rootName)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootName)

	for i := range records {
		b.addEntry(root, i+1, &records[i])
	}

	b.logger.Debug("XML tree built",
		zap.String("root", rootName),
		zap.Int("entries", len(records)))

	return doc, nil
}

func (b *Builder) addEntry(root *etree.Element, id int, rec *codec.Record) {
	entry := root.CreateElement("entry")
	entry.CreateAttr("id", strconv.Itoa(id))

	device := entry.CreateElement("device")
	device.CreateElement("device_id").SetText(rec.DeviceID)
	device.CreateElement("location").SetText(rec.Location)
	device.CreateElement("firmware_ver").SetText(rec.FirmwareVer)

	metrics := entry.CreateElement("metrics")
	metrics.CreateAttr("status", rec.Status)
	metrics.CreateAttr("alert_level", rec.AlertLevel)
	metrics.CreateElement("temperature").SetText(fmt.Sprintf("%.2f", float64(rec.Temperature)))
	metrics.CreateElement("humidity").SetText(strconv.FormatInt(int64(rec.Humidity), 10))
	metrics.CreateElement("battery").SetText(strconv.FormatInt(int64(rec.Battery), 10))

	timestamp := rec.Timestamp
	if timestamp == "" {
		timestamp = b.timestampFallback
	}
	entry.CreateElement("timestamp").SetText(timestamp)

	decimal := strconv.FormatInt(int64(rec.EventCode), 10)
	eventCode := entry.CreateElement("event_code")
	eventCode.SetText(decimal)
	eventCode.CreateAttr("hexBig", codec.HexBig(rec.EventCode))
	eventCode.CreateAttr("hexLittle", codec.HexLittle(rec.EventCode))
	eventCode.CreateAttr("decimal", decimal)
}

// isXMLName reports whether s is usable as an unprefixed element name
func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
