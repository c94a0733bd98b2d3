package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"bookshelf/internal/database"
	"bookshelf/internal/database/migration"
	"bookshelf/internal/model"
	"bookshelf/internal/repository"
)

// bookColumns is the fixed books schema, in table order. Payload
// validation and the full-row update assignment list both derive
// from it.
var bookColumns = []string{
	"id",
	"title",
	"author",
	"publishedDate",
	"imageUrl",
	"description",
	"createdBy",
	"createdById",
}

// BookMySQL is a MySQL implementation of repository.BookRepository.
// It opens a fresh connection through its Connector for every operation
// and closes it when the operation returns; the only state it keeps is
// the column list cached at construction.
type BookMySQL struct {
	conn    database.Connector
	columns []string
}

// NewBookMySQL constructs the repository. It connects once to make sure
// the books table exists, then caches the column set used for payload
// validation.
func NewBookMySQL(ctx context.Context, conn database.Connector, loc *time.Location) (*BookMySQL, error) {
	db, err := conn.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := migration.EnsureSchema(ctx, db, loc); err != nil {
		return nil, err
	}

	return &BookMySQL{conn: conn, columns: slices.Clone(bookColumns)}, nil
}

var _ repository.BookRepository = (*BookMySQL)(nil)

// validateFields rejects payloads naming columns outside the books schema.
// Runs before any connection is opened.
func (r *BookMySQL) validateFields(f repository.Fields) error {
	var unknown []string
	for name := range f {
		if !slices.Contains(r.columns, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return &repository.ValidationError{Fields: unknown}
	}
	return nil
}

// selectColumns is the column list shared by every SELECT.
const selectColumns = "`id`, `title`, `author`, `publishedDate`, `imageUrl`, `description`, `createdBy`, `createdById`"

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner, b *model.Book) error {
	return s.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.PublishedDate,
		&b.ImageURL,
		&b.Description,
		&b.CreatedBy,
		&b.CreatedByID,
	)
}

// Create inserts one row built from the columns present in the payload.
// A non-zero id forces the row's identity (idempotent retries, data
// migration); otherwise the generated id is returned.
func (r *BookMySQL) Create(ctx context.Context, fields repository.Fields, id int64) (int64, error) {
	if err := r.validateFields(fields); err != nil {
		return 0, err
	}

	if id != 0 {
		fields = maps.Clone(fields)
		fields["id"] = id
	}

	cols := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, c := range r.columns {
		if v, ok := fields[c]; ok {
			cols = append(cols, "`"+c+"`")
			args = append(args, v)
		}
	}

	db, err := r.conn.Connect(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	q := fmt.Sprintf("INSERT INTO `books` (%s) VALUES (%s)",
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	)
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}

	if id != 0 {
		return id, nil
	}
	return res.LastInsertId()
}

// Read returns the book with the given id, or nil when no row matches.
func (r *BookMySQL) Read(ctx context.Context, id int64) (*model.Book, error) {
	db, err := r.conn.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := "SELECT " + selectColumns + " FROM `books` WHERE `id` = ?"
	var b model.Book
	if err := scanBook(db.QueryRowContext(ctx, q, id), &b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// Update replaces the whole row keyed by the payload's id: every non-id
// column is assigned, NULL when absent from the payload. Omitted fields
// are nulled, not left untouched.
func (r *BookMySQL) Update(ctx context.Context, fields repository.Fields) (int64, error) {
	if err := r.validateFields(fields); err != nil {
		return 0, err
	}
	id, ok := fields.ID()
	if !ok {
		return 0, repository.ErrIDRequired
	}

	assignments := make([]string, 0, len(r.columns)-1)
	args := make([]any, 0, len(r.columns))
	for _, c := range r.columns {
		if c == "id" {
			continue
		}
		assignments = append(assignments, "`"+c+"` = ?")
		args = append(args, fields[c]) // nil for absent columns
	}
	args = append(args, id)

	db, err := r.conn.Connect(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	q := fmt.Sprintf("UPDATE `books` SET %s WHERE `id` = ?", strings.Join(assignments, ", "))
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the row with the given id and returns rows affected.
func (r *BookMySQL) Delete(ctx context.Context, id int64) (int64, error) {
	db, err := r.conn.Connect(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, "DELETE FROM `books` WHERE `id` = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// List returns one page of books in ascending id order using the
// over-fetch-by-one technique: limit+1 rows are requested, and hitting
// the extra row proves another page exists without a count query. The
// next cursor is the id of the last accepted row, zero on the last page.
func (r *BookMySQL) List(ctx context.Context, q repository.ListQuery) (*repository.ListResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	db, err := r.conn.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows *sql.Rows
	if q.Cursor > 0 {
		query := "SELECT " + selectColumns + " FROM `books` WHERE `id` > ? ORDER BY `id` LIMIT ?"
		rows, err = db.QueryContext(ctx, query, q.Cursor, limit+1)
	} else {
		query := "SELECT " + selectColumns + " FROM `books` ORDER BY `id` LIMIT ?"
		rows, err = db.QueryContext(ctx, query, limit+1)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]model.Book, 0, limit)
	var cursor int64
	for rows.Next() {
		if len(books) == limit {
			cursor = books[limit-1].ID
			break
		}
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.ListResult{Books: books, Cursor: cursor}, nil
}
