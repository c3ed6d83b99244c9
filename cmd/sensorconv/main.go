package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/oicur0t/sensorconv/internal/config"
	"github.com/oicur0t/sensorconv/internal/converter"
	"github.com/oicur0t/sensorconv/internal/report"
	"github.com/oicur0t/sensorconv/internal/schema"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	exitOK      = 0
	exitUsage   = 1
	exitFailure = 2
)

// Conversion types selected by the third positional argument
const (
	typeCSVToBinary = 1
	typeBinaryToXML = 2
	typeValidate    = 3
)

// long flags the original tool accepted with a single dash
var longFlags = map[string]bool{
	"separator": true,
	"opsys":     true,
	"config":    true,
	"report":    true,
	"help":      true,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: sensorconv inputFile outputFile conversionType -separator <1|2|3> -opsys <1|2|3>")
	fmt.Fprintln(w, "       sensorconv outputFile.xml 2")
	fmt.Fprintln(w, "  conversionType: 1 = CSV to binary, 2 = binary to XML, 3 = XML validation")
	fmt.Fprintln(w, "  -separator: 1 = comma (,), 2 = tab (\\t), 3 = semicolon (;)")
	fmt.Fprintln(w, "  -opsys:     1 = Windows (\\r\\n), 2 = Linux (\\n), 3 = MacOS (\\r)")
	fmt.Fprintln(w, "  -config:    tool configuration file (YAML)")
	fmt.Fprintln(w, "  -report:    write a YAML run report to this path")
	fmt.Fprintln(w, "  -h:         Show this help screen")
	fmt.Fprintln(w, "For type 2 the inputFile is the JSON job descriptor (dataFileName, keyStart, keyEnd, order).")
	fmt.Fprintln(w, "For type 3 the outputFile is the XSD schema.")
}

// normalizeArgs turns -separator style flags into --separator for pflag
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		if !strings.HasPrefix(a, "-") || strings.HasPrefix(a, "--") {
			continue
		}
		name := strings.SplitN(a[1:], "=", 2)[0]
		if longFlags[name] {
			out[i] = "-" + a
		}
	}
	return out
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("sensorconv", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printHelp(stderr) }

	separator := fs.Int("separator", 0, "field separator: 1 comma, 2 tab, 3 semicolon")
	opsys := fs.Int("opsys", 0, "line ending: 1 Windows, 2 Linux, 3 MacOS")
	configPath := fs.String("config", "", "path to configuration file")
	reportPath := fs.String("report", "", "path for a YAML run report")
	help := fs.BoolP("help", "h", false, "show this help screen")

	if err := fs.Parse(normalizeArgs(args)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printHelp(stderr)
		return exitUsage
	}
	if *help {
		printHelp(stdout)
		return exitOK
	}

	// Load configuration
	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitUsage
	}
	if *reportPath != "" {
		cfg.ReportFile = *reportPath
	}

	positional := fs.Args()
	var input, output string
	var conversionType int
	switch {
	case len(positional) == 2 && positional[1] == "2":
		// shorthand: sensorconv out.xml 2, descriptor from job_file
		input, output, conversionType = cfg.JobFile, positional[0], typeBinaryToXML
	case len(positional) >= 3:
		input, output = positional[0], positional[1]
		conversionType, err = strconv.Atoi(positional[2])
		if err != nil {
			conversionType = 0
		}
	default:
		fmt.Fprintln(stderr, "Error: Missing arguments.")
		fmt.Fprintln(stderr)
		printHelp(stderr)
		return exitUsage
	}

	separatorSet, opsysSet := fs.Changed("separator"), fs.Changed("opsys")
	if (separatorSet && !validOption(*separator)) || (opsysSet && !validOption(*opsys)) ||
		(conversionType == typeCSVToBinary && (!separatorSet || !opsysSet)) {
		fmt.Fprintln(stderr, "Error: Missing or invalid separator or opsys arguments.")
		fmt.Fprintln(stderr)
		printHelp(stderr)
		return exitUsage
	}

	if conversionType < typeCSVToBinary || conversionType > typeValidate {
		fmt.Fprintln(stderr, "Error: Invalid conversion type.")
		fmt.Fprintln(stderr, "1-csv to Binary\n2-Binary to XML\n3-XML Validation")
		return exitUsage
	}

	// Initialize logger
	logger, err := initLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitUsage
	}
	defer logger.Sync()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	conv, err := converter.New(cfg, runID, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer conv.Close()

	logger.Debug("Starting conversion",
		zap.Int("type", conversionType),
		zap.String("input", input),
		zap.String("output", output))

	var summary *report.Summary
	code := exitOK

	switch conversionType {
	case typeCSVToBinary:
		summary, err = conv.CSVToBinary(input, output, *separator, *opsys)
		if err == nil {
			fmt.Fprintln(stdout, "CSV to Binary conversion is completed successfully.")
		}
	case typeBinaryToXML:
		summary, err = conv.BinaryToXML(input, output)
		if err == nil {
			fmt.Fprintln(stdout, "Binary to XML conversion is completed successfully.")
		}
	case typeValidate:
		var result schema.Result
		summary, result, err = conv.Validate(input, output)
		if err == nil {
			fmt.Fprintf(stdout, "%s %s\n", input, result.Outcome)
			if result.Outcome != schema.Valid {
				code = exitFailure
			}
		}
	}

	if err != nil {
		logger.Error("Conversion failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		code = exitFailure
	}

	if cfg.ReportFile != "" && summary != nil {
		if rerr := report.Write(cfg.ReportFile, summary); rerr != nil {
			logger.Error("Failed to write report", zap.Error(rerr), zap.String("path", cfg.ReportFile))
			code = exitFailure
		}
	}

	return code
}

func validOption(n int) bool {
	return n >= 1 && n <= 3
}

// initLogger creates a configured zap logger
func initLogger(level string, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var loggerConfig zap.Config
	if format == "json" {
		loggerConfig = zap.NewProductionConfig()
	} else {
		loggerConfig = zap.NewDevelopmentConfig()
	}

	loggerConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	return loggerConfig.Build()
}
