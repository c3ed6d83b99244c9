package config

import (
	"fmt"
	"os"

	"github.com/oicur0t/sensorconv/internal/codec"
	"github.com/oicur0t/sensorconv/internal/errs"
	"github.com/valyala/fastjson"
)

// Job is the binary to XML job descriptor
type Job struct {
	DataFileName string
	KeyStart     int
	KeyEnd       int
	Order        string
}

// LoadJob reads and validates the job descriptor at path
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Config("load job", path, err)
	}
	return ParseJob(data, path)
}

// ParseJob validates a JSON job descriptor. path is only used in errors.
//
//	{"dataFileName": "logdata.dat", "keyStart": 0, "keyEnd": 9, "order": "ASC"}
func ParseJob(data []byte, path string) (*Job, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, errs.Config("parse job", path, err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, errs.Configf("parse job", path, "descriptor must be a JSON object, got %s", v.Type())
	}

	job := &Job{Order: "ASC"}

	if job.DataFileName, err = requiredString(v, "dataFileName"); err != nil {
		return nil, errs.Config("parse job", path, err)
	}
	if job.DataFileName == "" {
		return nil, errs.Configf("parse job", path, "dataFileName is empty")
	}
	if job.KeyStart, err = requiredInt(v, "keyStart"); err != nil {
		return nil, errs.Config("parse job", path, err)
	}
	if job.KeyEnd, err = requiredInt(v, "keyEnd"); err != nil {
		return nil, errs.Config("parse job", path, err)
	}
	if v.Exists("order") {
		if job.Order, err = requiredString(v, "order"); err != nil {
			return nil, errs.Config("parse job", path, err)
		}
	}

	// Validate key range
	switch {
	case job.KeyStart < 0:
		return nil, errs.Configf("parse job", path, "keyStart %d is negative", job.KeyStart)
	case job.KeyEnd < job.KeyStart:
		return nil, errs.Configf("parse job", path, "keyEnd %d is before keyStart %d", job.KeyEnd, job.KeyStart)
	case job.KeyEnd >= codec.RecordSize:
		return nil, errs.Configf("parse job", path, "keyEnd %d is outside the %d-byte record", job.KeyEnd, codec.RecordSize)
	}

	return job, nil
}

func requiredString(v *fastjson.Value, key string) (string, error) {
	field := v.Get(key)
	if field == nil {
		return "", fmt.Errorf("%s is required", key)
	}
	if field.Type() != fastjson.TypeString {
		return "", fmt.Errorf("%s must be a string, got %s", key, field.Type())
	}
	b, err := field.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return string(b), nil
}

func requiredInt(v *fastjson.Value, key string) (int, error) {
	field := v.Get(key)
	if field == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	if field.Type() != fastjson.TypeNumber {
		return 0, fmt.Errorf("%s must be a number, got %s", key, field.Type())
	}
	n, err := field.Int()
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
