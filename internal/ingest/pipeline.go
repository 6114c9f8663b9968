// Package ingest turns one uploaded delimited-text document into the new
// dataset. Ingestion is all-or-nothing: any structural problem rejects the
// whole upload and the previous dataset stays authoritative.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"spendwise/internal/core"
	"spendwise/internal/store"
)

// Row error codes surfaced inside a ValidationError.
const (
	CodeMissingColumn = "missing-required-column"
	CodeParseError    = "parse-error"
)

// ErrInvalidEncoding marks uploads whose bytes are not valid UTF-8 text.
var ErrInvalidEncoding = errors.New("upload is not valid UTF-8 text")

// RowError describes one offending data row. Row is the zero-based index of
// the data row (the header is not counted).
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError rejects a whole upload and carries every row-level problem
// found in it. Row problems are collected as data, never raised one by one.
type ValidationError struct {
	RowErrors []RowError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("upload rejected: %d row error(s)", len(e.RowErrors))
}

// EventPublisher receives a notification after a dataset has been durably
// replaced. Implementations must tolerate being called concurrently.
type EventPublisher interface {
	PublishDatasetReplaced(ctx context.Context, version int64, imported int, source string) error
}

// Result reports a committed ingestion.
type Result struct {
	Imported int
	Version  int64
}

// Pipeline drives parse, per-row normalization and the atomic store commit.
type Pipeline struct {
	store  store.DatasetStore
	events EventPublisher // optional
}

func New(st store.DatasetStore, events EventPublisher) *Pipeline {
	return &Pipeline{store: st, events: events}
}

// Ingest parses raw as delimited text with a header row, normalizes every
// data row and, only if the whole document is structurally sound, replaces
// the live dataset in one atomic write. originalName is the client-declared
// file name, used for logging and the replaced event only.
//
// Failure modes: *ValidationError when the document has row-level structural
// errors (dataset unchanged); any other error means the bytes were unreadable
// or the store write failed (dataset equally unchanged).
func (p *Pipeline) Ingest(ctx context.Context, raw []byte, originalName string) (Result, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(raw) {
		return Result{}, fmt.Errorf("decode upload %q: %w", originalName, ErrInvalidEncoding)
	}

	headers, records, rowErrs, err := parseDocument(raw)
	if err != nil {
		return Result{}, fmt.Errorf("read upload %q: %w", originalName, err)
	}
	if len(rowErrs) > 0 {
		return Result{}, &ValidationError{RowErrors: rowErrs}
	}

	ds := core.Dataset{Columns: headers, Records: records}
	version, err := p.store.Replace(ctx, ds)
	if err != nil {
		return Result{}, fmt.Errorf("persist dataset: %w", err)
	}

	slog.InfoContext(ctx, "Upload ingested",
		"source", originalName,
		"imported", len(records),
		"columns", len(headers),
		"version", version)

	if p.events != nil {
		if err := p.events.PublishDatasetReplaced(ctx, version, len(records), originalName); err != nil {
			// The dataset is committed; event delivery is best effort.
			slog.ErrorContext(ctx, "Failed to publish dataset-replaced event",
				"version", version, "error", err)
		}
	}

	return Result{Imported: len(records), Version: version}, nil
}

// parseDocument reads the whole document, collecting structural row errors
// instead of stopping at the first one so the caller can report them all.
func parseDocument(raw []byte) (headers []string, records []core.Record, rowErrs []RowError, err error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = 0 // first row fixes the column count

	headers, err = r.Read()
	if err == io.EOF {
		// A document with no rows at all becomes an empty dataset.
		return nil, nil, nil, nil
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, nil, []RowError{{Row: 0, Code: CodeParseError, Message: parseErr.Error()}}, nil
		}
		return nil, nil, nil, err
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	row := 0
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, nil, err
			}
			code := CodeParseError
			if errors.Is(parseErr.Err, csv.ErrFieldCount) && len(cells) < len(headers) {
				code = CodeMissingColumn
			}
			rowErrs = append(rowErrs, RowError{Row: row, Code: code, Message: parseErr.Error()})
			row++
			continue
		}
		records = append(records, core.NormalizeRow(headers, cells))
		row++
	}
	return headers, records, rowErrs, nil
}
