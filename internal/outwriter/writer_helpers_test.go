package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/mri/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatter(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 1", 1, 62.25, "62.2"},
		{"precision 2", 2, 62.256, "62.26"},
		{"negative delta", 1, -4.46, "-4.5"},
		{"whole number", 2, 100, "100.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, createFormatter(tt.precision)(tt.value))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"sprint": 3}))
	assert.Equal(t, "{\n  \"sprint\": 3\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"path", "reason"}, func(w *csv.Writer) error {
		return w.Write([]string{"a,b.go", "duplicate path"})
	})
	require.NoError(t, err)
	assert.Equal(t, "path,reason\n\"a,b.go\",duplicate path\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "out.txt")
	err := writeWithFile(tmpFile, func(w io.Writer) error {
		_, err := w.Write([]byte("health 62.0"))
		return err
	}, "Wrote test")
	require.NoError(t, err)

	content, err := os.ReadFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "health 62.0", string(content))

	err = writeWithFile(tmpFile, func(io.Writer) error { return assert.AnError }, "Wrote test")
	assert.Equal(t, assert.AnError, err)

	err = writeWithFile("/nonexistent/path/out.txt", func(io.Writer) error { return nil }, "Wrote test")
	assert.Error(t, err)
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Critical", categoryLabel(schema.CriticalCategory, false))
	assert.Equal(t, "Warning", categoryLabel(schema.WarningCategory, false))
	assert.Equal(t, "Healthy", categoryLabel(schema.HealthyCategory, false))
	assert.Contains(t, categoryLabel(schema.CriticalCategory, true), "Critical")
}
