// Package dataset accumulates canonical rows from many statement files into
// one table.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/stmtmerge/internal/layout"
	"github.com/cleared-dev/stmtmerge/internal/model"
	"github.com/cleared-dev/stmtmerge/internal/normalize"
	"github.com/cleared-dev/stmtmerge/internal/reader"
	"github.com/cleared-dev/stmtmerge/internal/report"
)

var (
	// ErrUnionFailure is matched by errors.Is for every UnionError.
	ErrUnionFailure = errors.New("rows do not fit the canonical schema")
	// ErrFinalized is returned by Attach and Finalize once Finalize has run.
	ErrFinalized = errors.New("dataset is finalized")
)

// UnionError reports the first row of a batch that breaks the canonical
// contract. The batch is rejected as a whole.
type UnionError struct {
	Row    int
	Reason string
}

func (e *UnionError) Error() string {
	return fmt.Sprintf("%s: row %d: %s", ErrUnionFailure, e.Row, e.Reason)
}

func (e *UnionError) Unwrap() error { return ErrUnionFailure }

// Dataset is safe for concurrent use.
type Dataset struct {
	catalog layout.Catalog
	files   *reader.Registry
	formats []string
	workers int
	log     zerolog.Logger
	notices *report.Log

	mu        sync.Mutex
	rows      []model.CanonicalRow
	finalized bool
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithWorkers bounds how many files AttachMany processes at once.
func WithWorkers(n int) Option {
	return func(d *Dataset) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets the logger for per-file events.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dataset) { d.log = l }
}

// WithNotices records skipped files and warnings into l.
func WithNotices(l *report.Log) Option {
	return func(d *Dataset) { d.notices = l }
}

// WithFormats limits AttachFolder to files with these extensions.
func WithFormats(formats []string) Option {
	return func(d *Dataset) { d.formats = formats }
}

// New creates an empty dataset that detects layouts with catalog and reads
// files through files.
func New(catalog layout.Catalog, files *reader.Registry, opts ...Option) *Dataset {
	d := &Dataset{
		catalog: catalog,
		files:   files,
		workers: runtime.GOMAXPROCS(0),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.notices == nil {
		d.notices = report.NewLog("")
	}
	return d
}

// Notices returns the notice log the dataset writes to.
func (d *Dataset) Notices() *report.Log { return d.notices }

// Attach appends a batch of rows. A batch that breaks the canonical contract
// is rejected whole with a *UnionError and the dataset is left unchanged.
func (d *Dataset) Attach(rows []model.CanonicalRow) error {
	if err := validate(rows); err != nil {
		d.log.Warn().Err(err).Int("rows", len(rows)).Msg("batch rejected")
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return ErrFinalized
	}
	d.rows = append(d.rows, rows...)
	return nil
}

// AttachFile reads, detects and normalizes one file and attaches its rows.
// It returns the number of rows attached.
func (d *Dataset) AttachFile(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	t, err := d.files.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	desc, err := d.catalog.Detect(t.Header)
	if err != nil {
		return 0, fmt.Errorf("detecting %s: %w", path, err)
	}

	res, err := normalize.Normalize(t, path, desc)
	if err != nil {
		return 0, fmt.Errorf("normalizing %s: %w", path, err)
	}

	log := d.log.With().Str("file", path).Str("layout", desc.Name).Logger()
	log.Debug().
		Str("table", t.Describe()).
		Int("input", res.Stats.Input).
		Int("collapsed", res.Stats.Collapsed).
		Int("bad_time", res.Stats.BadTime).
		Int("bad_amount", res.Stats.BadAmount).
		Bool("dedup_skipped", res.Stats.DedupSkipped).
		Msg("normalized")
	if res.Stats.BadTime > 0 || res.Stats.BadAmount > 0 {
		d.notices.Add(report.KindWarning, path, fmt.Sprintf(
			"%d unparsed times, %d unparsed amounts stored as null",
			res.Stats.BadTime, res.Stats.BadAmount))
	}
	if res.Stats.DedupSkipped {
		log.Warn().Str("column", desc.DedupColumn).Msg("dedup column missing")
		d.notices.Add(report.KindWarning, path, fmt.Sprintf(
			"column %s missing, per-file dedup skipped", desc.DedupColumn))
	}

	if err := d.Attach(res.Rows); err != nil {
		return 0, fmt.Errorf("attaching %s: %w", path, err)
	}
	log.Info().Int("rows", len(res.Rows)).Msg("attached")
	return len(res.Rows), nil
}

// Summary counts the outcome of AttachMany.
type Summary struct {
	Files     int
	Attached  int
	Skipped   int
	Cancelled int // never started because ctx was done
	Rows      int
}

// AttachMany attaches files in parallel. Failing files are logged, recorded
// as notices and skipped; they never stop the others. Cancelling ctx stops
// scheduling new files.
func (d *Dataset) AttachMany(ctx context.Context, paths []string) Summary {
	var mu sync.Mutex
	sum := Summary{Files: len(paths)}

	var g errgroup.Group
	g.SetLimit(d.workers)
	started := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		started++
		path := path
		g.Go(func() error {
			n, err := d.AttachFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Skipped++
				d.skip(path, err)
				return nil
			}
			sum.Attached++
			sum.Rows += n
			return nil
		})
	}
	_ = g.Wait()

	sum.Cancelled = len(paths) - started
	return sum
}

// AttachFolder scans dir recursively and attaches every file found. Only an
// unreadable dir fails the call.
func (d *Dataset) AttachFolder(ctx context.Context, dir string) (Summary, error) {
	files, err := reader.Scan(dir, d.formats, func(path string, err error) {
		d.skip(path, err)
	})
	if err != nil {
		return Summary{}, err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		d.log.Debug().Str("file", f.Path).Str("name", f.Name).Int64("bytes", f.Size).Msg("found")
		paths[i] = f.Path
	}
	d.log.Info().Str("dir", dir).Int("files", len(paths)).Msg("scanned")
	return d.AttachMany(ctx, paths), nil
}

func (d *Dataset) skip(path string, err error) {
	kind := report.KindSkip
	if errors.Is(err, ErrUnionFailure) {
		kind = report.KindUnion
	}
	d.log.Warn().Err(err).Str("file", path).Str("kind", string(kind)).Msg("file skipped")
	d.notices.Add(kind, path, err.Error())
}

// dedupKey identifies a transaction across files.
type dedupKey struct {
	from, to         string
	fromNull, toNull bool
	amount           string // "" when null
	unixMilli        int64
	timeNull         bool
}

func keyOf(r model.CanonicalRow) dedupKey {
	k := dedupKey{
		from:     model.Deref(r.FromID),
		to:       model.Deref(r.ToID),
		fromNull: r.FromID == nil,
		toNull:   r.ToID == nil,
		timeNull: r.Datetime == nil,
	}
	if r.Amount.Valid {
		k.amount = r.Amount.Decimal.StringFixed(model.AmountScale)
	}
	if r.Datetime != nil {
		k.unixMilli = r.Datetime.UnixMilli()
	}
	return k
}

// Deduplicate keeps the first row for every (from id, to id, amount,
// datetime) and returns how many rows it removed. Nulls compare equal to
// each other.
func (d *Dataset) Deduplicate() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[dedupKey]struct{}, len(d.rows))
	kept := d.rows[:0]
	for _, r := range d.rows {
		k := keyOf(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, r)
	}
	removed := len(d.rows) - len(kept)
	clear(d.rows[len(kept):])
	d.rows = kept
	return removed
}

// Finalize hands the accumulated rows to the caller. No further Attach is
// accepted and a second Finalize fails.
func (d *Dataset) Finalize() ([]model.CanonicalRow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return nil, ErrFinalized
	}
	d.finalized = true
	rows := d.rows
	d.rows = nil
	return rows, nil
}

// Len returns the number of rows attached so far.
func (d *Dataset) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rows)
}

func validate(rows []model.CanonicalRow) error {
	for i, r := range rows {
		var reason string
		switch {
		case r.ConfigName == "":
			reason = "missing layout name"
		case r.FilePath == "":
			reason = "missing file path"
		case r.Amount.Valid && r.Amount.Decimal.IsNegative():
			reason = "negative amount " + r.Amount.Decimal.String()
		case r.Amount.Valid && !r.Amount.Decimal.Equal(r.Amount.Decimal.Round(model.AmountScale)):
			reason = "amount " + r.Amount.Decimal.String() + " has more than two decimal places"
		case r.Datetime != nil && !r.Datetime.Equal(r.Datetime.Truncate(time.Millisecond)):
			reason = "datetime finer than milliseconds"
		}
		if reason != "" {
			return &UnionError{Row: i, Reason: reason}
		}
	}
	return nil
}
