// Package report records files that were skipped or only partly merged
// during a run and persists them as notices.csv next to the output.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Kind classifies a notice.
type Kind string

const (
	// KindSkip: the file could not be read, detected or normalized.
	KindSkip Kind = "skip"
	// KindUnion: the file's rows were rejected by the aggregate.
	KindUnion Kind = "union_failure"
	// KindWarning: the file was merged but some cells became null.
	KindWarning Kind = "warning"
)

// Entry is one row in notices.csv.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Kind      Kind
	Path      string
	Detail    string
}

// Header is the CSV header for notices.csv.
const Header = "timestamp,run_id,kind,path,detail"

// FileName is the notices file written into the output directory.
const FileName = "notices.csv"

const (
	numFields    = 5
	colTimestamp = 0
	colRunID     = 1
	colKind      = 2
	colPath      = 3
	colDetail    = 4
)

// marshalEntry converts an Entry to a CSV row.
func marshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colKind] = string(e.Kind)
	row[colPath] = e.Path
	row[colDetail] = e.Detail
	return row
}

// unmarshalEntry converts a CSV row to an Entry.
func unmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Kind:      Kind(record[colKind]),
		Path:      record[colPath],
		Detail:    record[colDetail],
	}, nil
}

// Log collects notices from concurrent workers.
type Log struct {
	mu      sync.Mutex
	runID   string
	now     func() time.Time
	entries []Entry
}

// NewLog creates an empty log whose entries carry runID.
func NewLog(runID string) *Log {
	return &Log{runID: runID, now: time.Now}
}

// Add records a notice.
func (l *Log) Add(kind Kind, path, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Timestamp: l.now().UTC().Truncate(time.Second),
		RunID:     l.runID,
		Kind:      kind,
		Path:      path,
		Detail:    detail,
	})
}

// Entries returns a copy of the recorded notices in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Count returns the number of notices of kind.
func (l *Log) Count(kind Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Append writes entries to <dir>/notices.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening notices: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(marshalEntry(e)); err != nil {
			return fmt.Errorf("writing notice %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/notices.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening notices: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading notices CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := unmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
