package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// XMLConfig holds XML output settings
type XMLConfig struct {
	Indent            int    `mapstructure:"indent"`
	Encoding          string `mapstructure:"encoding"`
	TimestampFallback string `mapstructure:"timestamp_fallback"`
}

// StorageConfig holds binary record file settings
type StorageConfig struct {
	Compress string `mapstructure:"compress"` // auto, always or never
}

// AppConfig represents the complete tool configuration
type AppConfig struct {
	LogLevel   string        `mapstructure:"log_level"`
	LogFormat  string        `mapstructure:"log_format"`
	JobFile    string        `mapstructure:"job_file"`
	ReportFile string        `mapstructure:"report_file"`
	XML        XMLConfig     `mapstructure:"xml"`
	Storage    StorageConfig `mapstructure:"storage"`
}

// LoadAppConfig loads the tool configuration. An empty configPath uses
// defaults and SENSORCONV_* environment variables only.
func LoadAppConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("sensorconv")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("job_file", "setupParams.json")
	v.SetDefault("report_file", "")
	v.SetDefault("xml.indent", 2)
	v.SetDefault("xml.encoding", "UTF-8")
	v.SetDefault("xml.timestamp_fallback", "2000-01-01T00:00:00")
	v.SetDefault("storage.compress", "auto")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate fields
	if config.XML.Indent < 0 || config.XML.Indent > 16 {
		return nil, fmt.Errorf("xml.indent must be between 0 and 16, got %d", config.XML.Indent)
	}
	if config.LogFormat != "json" && config.LogFormat != "console" {
		return nil, fmt.Errorf("log_format must be json or console, got %q", config.LogFormat)
	}
	if config.JobFile == "" {
		return nil, fmt.Errorf("job_file is required")
	}

	return &config, nil
}
