package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"powerlog/backend/services/collector-service/internal/models"
)

const headerLine = "Time;Frequency;L1C [A];L1V [V];L1P;L1Q [kVar];L1CosPhi;L2C [A];L2V [V];L2P [kW];L2Q [kVar];L2CosPhi;L3C [A];L3V [V];L3P [kW];L3Q [kVar];L3CosPhi"

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func sampleRow() models.Row {
	return models.Row{"12:00:01", "50.0", "10.13", "230.51", "2.3", "0.1", "0.98"}
}

func TestNewCSVRepositoryWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mqtt_data.csv")

	repo, err := NewCSVRepository(path, false)
	if err != nil {
		t.Fatalf("NewCSVRepository returned error: %v", err)
	}
	if _, err := NewCSVRepository(path, false); err != nil {
		t.Fatalf("second NewCSVRepository returned error: %v", err)
	}
	if err := repo.Append(sampleRow()); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	lines := readLines(t, path)
	want := []string{headerLine, "12:00:01;50.0;10.13;230.51;2.3;0.1;0.98;;;;;;;;;;"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q; want %q", i, lines[i], want[i])
		}
	}
}

func TestCSVRepositoryKeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqtt_data.csv")
	existing := headerLine + "\nold;row;;;;;;;;;;;;;;;\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	repo, err := NewCSVRepository(path, false)
	if err != nil {
		t.Fatalf("NewCSVRepository returned error: %v", err)
	}
	if err := repo.Append(sampleRow()); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if strings.Count(strings.Join(lines, "\n"), "Time;Frequency") != 1 {
		t.Fatalf("header written more than once: %q", lines)
	}
}

func TestCSVRepositoryRewritesHeaderAfterExternalTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqtt_data.csv")
	repo, err := NewCSVRepository(path, false)
	if err != nil {
		t.Fatalf("NewCSVRepository returned error: %v", err)
	}
	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if err := repo.Append(sampleRow()); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	lines := readLines(t, path)
	if len(lines) != 2 || lines[0] != headerLine {
		t.Fatalf("unexpected content %q", lines)
	}
}

func TestCSVRepositoryQuotesAndCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mqtt_data.csv")
	repo, err := NewCSVRepository(path, true)
	if err != nil {
		t.Fatalf("NewCSVRepository returned error: %v", err)
	}
	if err := repo.Append(models.Row{"a;b", `say "hi"`}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.HasSuffix(text, "\"a;b\";\"say \"\"hi\"\"\";;;;;;;;;;;;;;;\r\n") {
		t.Fatalf("unexpected encoding %q", text)
	}
	if !strings.HasPrefix(text, headerLine+"\r\n") {
		t.Fatalf("header not CRLF terminated: %q", text)
	}
}

func TestNewCSVRepositoryEmptyPath(t *testing.T) {
	if _, err := NewCSVRepository("  ", false); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
