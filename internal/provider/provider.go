// Package provider reads metric batches delivered by an external metrics provider.
package provider

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/huangsam/mri/schema"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a metric batch.
type Format string

// All batch formats supported.
const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
	CSVFormat  Format = "csv"
)

// csvHeader is the column order of CSV batches.
var csvHeader = []string{"path", "complexity", "churn", "loc"}

// FormatForPath picks the batch format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFormat, nil
	case ".yaml", ".yml":
		return YAMLFormat, nil
	case ".csv":
		return CSVFormat, nil
	default:
		return "", fmt.Errorf("unsupported metrics file %q: expected .json, .yaml, .yml or .csv", path)
	}
}

// ReadBatch reads the metric batch at path. A path of "-" reads stdin and
// guesses the format from the content.
func ReadBatch(path string) (*schema.MetricBatch, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read metrics from stdin: %w", err)
		}
		return Decode(bytes.NewReader(data), Sniff(data))
	}
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	defer func() { _ = file.Close() }()

	batch, err := Decode(file, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return batch, nil
}

// Decode reads one metric batch in the given format.
// Values are passed through as delivered; the builder decides what is invalid.
func Decode(r io.Reader, format Format) (*schema.MetricBatch, error) {
	switch format {
	case JSONFormat:
		var batch schema.MetricBatch
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&batch); err != nil {
			return nil, fmt.Errorf("failed to decode JSON batch: %w", err)
		}
		return &batch, nil

	case YAMLFormat:
		var batch schema.MetricBatch
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&batch); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode YAML batch: %w", err)
		}
		return &batch, nil

	case CSVFormat:
		return decodeCSV(r)

	default:
		return nil, fmt.Errorf("unsupported batch format: %s", format)
	}
}

// decodeCSV reads rows of path,complexity,churn,loc. A row that carries only
// a path marks a file the provider could not measure.
func decodeCSV(r io.Reader) (*schema.MetricBatch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	batch := &schema.MetricBatch{}
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV batch: %w", err)
		}
		row++
		if row == 1 && isHeader(record) {
			continue
		}

		if len(record) == 1 || (len(record) == len(csvHeader) && allBlank(record[1:])) {
			batch.Unreadable = append(batch.Unreadable, strings.TrimSpace(record[0]))
			continue
		}
		if len(record) != len(csvHeader) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", row, len(csvHeader), len(record))
		}

		m, err := parseCSVRecord(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		batch.Files = append(batch.Files, m)
	}
	return batch, nil
}

func parseCSVRecord(record []string) (schema.FileMetric, error) {
	complexity, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return schema.FileMetric{}, fmt.Errorf("invalid complexity %q", record[1])
	}
	churn, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return schema.FileMetric{}, fmt.Errorf("invalid churn %q", record[2])
	}
	loc, err := strconv.Atoi(strings.TrimSpace(record[3]))
	if err != nil {
		return schema.FileMetric{}, fmt.Errorf("invalid loc %q", record[3])
	}
	return schema.FileMetric{
		Path:          strings.TrimSpace(record[0]),
		RawComplexity: complexity,
		RawChurnCount: churn,
		RawLOC:        loc,
	}, nil
}

func isHeader(record []string) bool {
	if len(record) != len(csvHeader) {
		return false
	}
	for i, name := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(record[i]), name) {
			return false
		}
	}
	return true
}

func allBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Sniff guesses the format of an in-memory batch. It is used when a batch
// arrives without a file name.
func Sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(trimmed, []byte("{")):
		return JSONFormat
	case bytes.HasPrefix(trimmed, []byte("path,")), bytes.HasPrefix(trimmed, []byte("#")):
		return CSVFormat
	default:
		return YAMLFormat
	}
}
