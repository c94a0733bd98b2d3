package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., mysql) inside this directory.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bookshelf/internal/model"
)

// ErrIDRequired is returned by Update when the payload carries no id.
var ErrIDRequired = errors.New("book id is required")

// Fields is a book payload for create and update: a mapping from column
// names to values. Only the fixed set of books columns is accepted;
// anything else fails validation before any SQL runs.
type Fields map[string]any

// ID extracts the id field from the payload. It tolerates the numeric
// representations a JSON decode or a direct caller may produce.
func (f Fields) ID() (int64, bool) {
	v, ok := f["id"]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// ValidationError reports payload field names outside the books schema.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	copy(names, e.Fields)
	sort.Strings(names)
	return fmt.Sprintf("unsupported fields: %s", strings.Join(names, ", "))
}

// ListQuery holds cursor pagination parameters.
// Cursor zero means "from the beginning"; otherwise only rows with
// id greater than Cursor are returned.
type ListQuery struct {
	Limit  int
	Cursor int64
}

// ListResult is one page of books in ascending id order.
// Cursor is the id of the last book on the page when more pages exist,
// and zero on the last page.
type ListResult struct {
	Books  []model.Book
	Cursor int64
}

// BookRepository defines data access for books using SQL queries only.
// No business logic here — strictly persistence operations.
//
// Absence is never an error: Read returns nil for a missing id, and
// Update/Delete report zero rows affected. Driver errors are surfaced
// to the caller as-is.
type BookRepository interface {
	// Create validates the payload and inserts one row using only the
	// columns present in it. A non-zero id forces the row's identity;
	// otherwise the database assigns one. Returns the stored id.
	Create(ctx context.Context, fields Fields, id int64) (int64, error)

	// Read returns the book with the given id, or nil if no row matches.
	Read(ctx context.Context, id int64) (*model.Book, error)

	// Update validates the payload and replaces the whole row keyed by
	// the payload's id: every known column is assigned, NULL when absent
	// from the payload. Returns the number of rows affected.
	Update(ctx context.Context, fields Fields) (int64, error)

	// Delete removes the row with the given id and returns rows affected.
	Delete(ctx context.Context, id int64) (int64, error)

	// List returns up to q.Limit books ordered by ascending id, starting
	// after q.Cursor when it is non-zero.
	List(ctx context.Context, q ListQuery) (*ListResult, error)
}
