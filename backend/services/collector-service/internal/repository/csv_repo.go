package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"powerlog/backend/services/collector-service/internal/models"
)

const (
	csvDelimiter = ';'
	csvFileMode  = 0o644
)

// CSVRepository appends rows to a semicolon separated file. The header is
// written whenever the file is empty, so it appears once per file lifetime.
type CSVRepository struct {
	mu   sync.Mutex
	path string
	crlf bool
}

// NewCSVRepository prepares the output file, creating it with a header row if
// it is missing or empty. Existing content is never touched.
func NewCSVRepository(path string, crlf bool) (*CSVRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("csv: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("csv: create dir: %w", err)
		}
	}

	r := &CSVRepository{path: path, crlf: crlf}
	if err := r.write(nil); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the output file location.
func (r *CSVRepository) Path() string {
	return r.path
}

// Append writes row as one line in a single write call.
func (r *CSVRepository) Append(row models.Row) error {
	return r.write(&row)
}

func (r *CSVRepository) write(row *models.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, csvFileMode)
	if err != nil {
		return fmt.Errorf("csv: open %s: %w", r.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("csv: stat %s: %w", r.path, err)
	}

	var lines [][]string
	if info.Size() == 0 {
		lines = append(lines, models.Header.Fields())
	}
	if row != nil {
		lines = append(lines, row.Fields())
	}
	if len(lines) == 0 {
		return nil
	}

	data, err := r.encode(lines)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("csv: write %s: %w", r.path, err)
	}
	return nil
}

func (r *CSVRepository) encode(lines [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = csvDelimiter
	w.UseCRLF = r.crlf
	if err := w.WriteAll(lines); err != nil {
		return nil, fmt.Errorf("csv: encode: %w", err)
	}
	return buf.Bytes(), nil
}
