package report

import (
	"fmt"
	"os"
	"time"

	"github.com/oicur0t/sensorconv/pkg/models"
	"gopkg.in/yaml.v3"
)

// Summary describes one conversion run
type Summary struct {
	RunID       string              `yaml:"run_id"`
	Operation   string              `yaml:"operation"`
	Input       string              `yaml:"input"`
	Output      string              `yaml:"output"`
	Records     int                 `yaml:"records"`
	Sort        *SortSummary        `yaml:"sort,omitempty"`
	Truncations []models.Truncation `yaml:"truncations,omitempty"`
	Problems    []string            `yaml:"problems,omitempty"`
	Outcome     string              `yaml:"outcome"`
	Error       string              `yaml:"error,omitempty"`
	StartedAt   time.Time           `yaml:"started_at"`
	Duration    time.Duration       `yaml:"duration"`
}

// SortSummary records how binary records were ordered
type SortSummary struct {
	KeyStart int    `yaml:"key_start"`
	KeyEnd   int    `yaml:"key_end"`
	Order    string `yaml:"order"`
}

// Write saves the summary as YAML
func Write(path string, s *Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// Read loads a summary written by Write
func Read(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &s, nil
}
