package xmldoc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/oicur0t/sensorconv/internal/errs"
	"go.uber.org/zap"
)

// Serializer writes documents to disk
type Serializer struct {
	indent   int
	encoding string
	logger   *zap.Logger
}

// NewSerializer creates a serializer indenting by indent spaces per level.
// Only UTF-8 output is supported.
func NewSerializer(indent int, encoding string, logger *zap.Logger) *Serializer {
	if encoding == "" {
		encoding = "UTF-8"
	}
	return &Serializer{
		indent:   indent,
		encoding: encoding,
		logger:   logger,
	}
}

// Write serializes doc to path. The file is written next to its target
// and renamed into place, so on error no partial document is left behind.
func (s *Serializer) Write(doc *etree.Document, path string) error {
	if !isUTF8(s.encoding) {
		return errs.Encoding("write xml", path, fmt.Errorf("unsupported encoding %q", s.encoding))
	}
	if root := doc.Root(); root != nil {
		if err := checkElement(root); err != nil {
			return errs.Encoding("write xml", path, err)
		}
	}

	doc.Indent(s.indent)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errs.IO("create xml", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	n, err := doc.WriteTo(w)
	if err != nil {
		return errs.IO("write xml", path, err)
	}
	if err := w.Flush(); err != nil {
		return errs.IO("write xml", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.IO("close xml", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return errs.IO("chmod xml", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errs.IO("rename xml", path, err)
	}
	committed = true

	s.logger.Debug("XML document written",
		zap.String("path", path),
		zap.Int64("bytes", n))

	return nil
}

func isUTF8(encoding string) bool {
	switch strings.ToUpper(encoding) {
	case "UTF-8", "UTF8":
		return true
	}
	return false
}

// checkElement rejects names, attributes and text that are not valid
// UTF-8 or contain characters XML 1.0 cannot represent
func checkElement(e *etree.Element) error {
	if err := checkText(e.Tag); err != nil {
		return fmt.Errorf("element name %q: %w", e.Tag, err)
	}
	for _, a := range e.Attr {
		if err := checkText(a.Value); err != nil {
			return fmt.Errorf("<%s %s>: %w", e.Tag, a.Key, err)
		}
	}
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if err := checkText(t.Data); err != nil {
				return fmt.Errorf("<%s> text: %w", e.Tag, err)
			}
		case *etree.Element:
			if err := checkElement(t); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkText(s string) error {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return fmt.Errorf("invalid UTF-8 byte 0x%02X at offset %d", s[i], i)
		}
		if !isXMLChar(r) {
			return fmt.Errorf("character U+%04X at offset %d is not allowed in XML", r, i)
		}
		i += size
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
