package converter

import (
	"fmt"
	"os"
	"time"

	"github.com/oicur0t/sensorconv/internal/codec"
	"github.com/oicur0t/sensorconv/internal/config"
	"github.com/oicur0t/sensorconv/internal/csvparse"
	"github.com/oicur0t/sensorconv/internal/errs"
	"github.com/oicur0t/sensorconv/internal/report"
	"github.com/oicur0t/sensorconv/internal/schema"
	"github.com/oicur0t/sensorconv/internal/sorter"
	"github.com/oicur0t/sensorconv/internal/storage"
	"github.com/oicur0t/sensorconv/internal/xmldoc"
	"github.com/oicur0t/sensorconv/pkg/models"
	"go.uber.org/zap"
)

// Operation names used in logs and reports
const (
	OpCSVToBinary = "csv-to-binary"
	OpBinaryToXML = "binary-to-xml"
	OpValidate    = "xml-validation"
)

// Converter runs one conversion per invocation
type Converter struct {
	runID      string
	storage    *storage.Storage
	builder    *xmldoc.Builder
	serializer *xmldoc.Serializer
	logger     *zap.Logger
}

// New creates a converter from the tool configuration
func New(cfg *config.AppConfig, runID string, logger *zap.Logger) (*Converter, error) {
	compression, err := storage.ParseCompression(cfg.Storage.Compress)
	if err != nil {
		return nil, errs.Config("storage.compress", "", err)
	}

	store, err := storage.NewStorage(compression, logger)
	if err != nil {
		return nil, err
	}

	return &Converter{
		runID:      runID,
		storage:    store,
		builder:    xmldoc.NewBuilder(cfg.XML.TimestampFallback, logger),
		serializer: xmldoc.NewSerializer(cfg.XML.Indent, cfg.XML.Encoding, logger),
		logger:     logger,
	}, nil
}

// Close releases the converter's resources
func (c *Converter) Close() {
	c.storage.Close()
}

func (c *Converter) newSummary(op, input, output string) *report.Summary {
	return &report.Summary{
		RunID:     c.runID,
		Operation: op,
		Input:     input,
		Output:    output,
		StartedAt: time.Now(),
	}
}

func finish(s *report.Summary, err error) {
	s.Duration = time.Since(s.StartedAt)
	if err != nil {
		s.Outcome = "failure"
		s.Error = err.Error()
		return
	}
	if s.Outcome == "" {
		s.Outcome = "success"
	}
}

func (c *Converter) logTruncations(cuts []models.Truncation) {
	for _, cut := range cuts {
		c.logger.Warn("Text truncated to field width",
			zap.Int("record", cut.Record),
			zap.String("field", cut.Field),
			zap.String("original", cut.Original),
			zap.String("kept", cut.Kept))
	}
}

// CSVToBinary parses the delimited file at inputPath and writes the
// records to outputPath in the binary layout
func (c *Converter) CSVToBinary(inputPath, outputPath string, separator, opsys int) (summary *report.Summary, err error) {
	summary = c.newSummary(OpCSVToBinary, inputPath, outputPath)
	defer func() { finish(summary, err) }()

	parser, err := csvparse.NewParser(separator, opsys, c.logger)
	if err != nil {
		return summary, err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return summary, errs.IO("open csv", inputPath, err)
	}
	defer f.Close()

	rows, err := parser.Parse(f, inputPath)
	if err != nil {
		return summary, err
	}

	records := make([]codec.Record, 0, len(rows))
	for i, row := range rows {
		rec, cuts := codec.NewRecord(row.Record)
		for j := range cuts {
			cuts[j].Record = i + 1
		}
		c.logTruncations(cuts)
		summary.Truncations = append(summary.Truncations, cuts...)
		records = append(records, rec)
	}

	if err := c.storage.WriteRecords(outputPath, records); err != nil {
		return summary, err
	}
	summary.Records = len(records)

	c.logger.Info("CSV converted to binary",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("records", len(records)),
		zap.Int("truncated_fields", len(summary.Truncations)))

	return summary, nil
}

// BinaryToXML loads the job descriptor at jobPath, sorts the records of
// its data file and writes them as an XML document to outputPath
func (c *Converter) BinaryToXML(jobPath, outputPath string) (summary *report.Summary, err error) {
	summary = c.newSummary(OpBinaryToXML, jobPath, outputPath)
	defer func() { finish(summary, err) }()

	job, err := config.LoadJob(jobPath)
	if err != nil {
		return summary, err
	}
	summary.Input = job.DataFileName

	order, known := sorter.ParseOrder(job.Order)
	if !known {
		c.logger.Warn("Unrecognized sort order, sorting ascending",
			zap.String("order", job.Order))
	}
	summary.Sort = &report.SortSummary{KeyStart: job.KeyStart, KeyEnd: job.KeyEnd, Order: order.String()}

	cmp, err := sorter.NewComparator(job.KeyStart, job.KeyEnd)
	if err != nil {
		return summary, err
	}

	rootName, err := xmldoc.RootName(outputPath)
	if err != nil {
		return summary, err
	}

	records, cuts, err := c.storage.ReadRecords(job.DataFileName)
	if err != nil {
		return summary, err
	}
	c.logTruncations(cuts)
	summary.Truncations = cuts

	sorter.Sort(records, cmp, order)
	c.logger.Debug("Records sorted",
		zap.Int("key_start", job.KeyStart),
		zap.Int("key_end", job.KeyEnd),
		zap.Stringer("order", order))

	doc, err := c.builder.Build(rootName, records)
	if err != nil {
		return summary, err
	}
	if err := c.serializer.Write(doc, outputPath); err != nil {
		return summary, err
	}
	summary.Records = len(records)

	c.logger.Info("Binary converted to XML",
		zap.String("data_file", job.DataFileName),
		zap.String("output", outputPath),
		zap.Int("records", len(records)))

	return summary, nil
}

// Validate checks xmlPath against the schema at xsdPath. A document that
// does not validate is reported through the result, not as an error.
func (c *Converter) Validate(xmlPath, xsdPath string) (summary *report.Summary, result schema.Result, err error) {
	summary = c.newSummary(OpValidate, xmlPath, xsdPath)
	defer func() { finish(summary, err) }()

	session, err := schema.Open(c.logger)
	if err != nil {
		return summary, result, err
	}
	defer session.Close()

	result, err = session.Validate(xmlPath, xsdPath)
	if err != nil {
		return summary, result, err
	}

	summary.Outcome = result.Outcome.String()
	for _, p := range result.Problems {
		summary.Problems = append(summary.Problems, fmt.Sprintf("line %d %s: %s", p.Line, p.Node, p.Message))
		c.logger.Info("Validation problem",
			zap.Int("line", p.Line),
			zap.String("node", p.Node),
			zap.String("message", p.Message))
	}

	return summary, result, nil
}
