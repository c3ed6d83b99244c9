package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/oicur0t/sensorconv/internal/codec"
	"github.com/oicur0t/sensorconv/internal/errs"
	"github.com/oicur0t/sensorconv/pkg/models"
	"go.uber.org/zap"
)

// CompressedSuffix marks a record file stored as a zstd frame
const CompressedSuffix = ".zst"

// Compression selects when record files are zstd compressed
type Compression int

const (
	CompressAuto Compression = iota // by CompressedSuffix
	CompressAlways
	CompressNever
)

// ParseCompression reads the storage.compress setting
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return CompressAuto, nil
	case "always":
		return CompressAlways, nil
	case "never":
		return CompressNever, nil
	}
	return CompressAuto, fmt.Errorf("unknown compression mode %q", s)
}

// Storage loads and stores whole binary record files
type Storage struct {
	compression Compression
	decoder     *zstd.Decoder
	logger      *zap.Logger
}

// NewStorage creates a record file store
func NewStorage(compression Compression, logger *zap.Logger) (*Storage, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Storage{
		compression: compression,
		decoder:     decoder,
		logger:      logger,
	}, nil
}

func (s *Storage) compressed(path string) bool {
	switch s.compression {
	case CompressAlways:
		return true
	case CompressNever:
		return false
	}
	return strings.HasSuffix(path, CompressedSuffix)
}

// ReadRecords loads every record in path, in file order
func (s *Storage) ReadRecords(path string) ([]codec.Record, []models.Truncation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errs.IO("read records", path, err)
	}

	if s.compressed(path) {
		raw, err := s.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, nil, errs.Format("decompress records", path, err)
		}
		s.logger.Debug("Decompressed record file",
			zap.String("path", path),
			zap.Int("compressed_bytes", len(data)),
			zap.Int("bytes", len(raw)))
		data = raw
	}

	records, cuts, err := codec.DecodeAll(data)
	if err != nil {
		return nil, nil, errs.Format("read records", path, err)
	}

	s.logger.Info("Records loaded",
		zap.String("path", path),
		zap.Int("records", len(records)))

	return records, cuts, nil
}

// WriteRecords replaces path with the encoded records. Nothing is left at
// path if writing fails.
func (s *Storage) WriteRecords(path string, records []codec.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errs.IO("create records", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	buffered := bufio.NewWriter(tmp)
	var w io.Writer = buffered
	var enc *zstd.Encoder
	if s.compressed(path) {
		enc, err = zstd.NewWriter(buffered)
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		w = enc
	}

	for i := range records {
		if _, err := w.Write(records[i].Bytes()); err != nil {
			return errs.IO("write records", path, err)
		}
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return errs.IO("write records", path, err)
		}
	}
	if err := buffered.Flush(); err != nil {
		return errs.IO("write records", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.IO("close records", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return errs.IO("chmod records", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errs.IO("rename records", path, err)
	}
	committed = true

	s.logger.Info("Records written",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Bool("compressed", enc != nil))

	return nil
}

// Close releases the decoder
func (s *Storage) Close() {
	s.decoder.Close()
}
