package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/model"
	"bookshelf/internal/repository"
	"bookshelf/internal/storage"
)

var (
	ErrNotFound  = errors.New("book not found")
	ErrNoCover   = errors.New("book has no cover image")
	ErrReaderNil = errors.New("reader is nil")
)

// BookListResult is the service-level DTO for one page of books.
// Cursor is nil on the last page.
type BookListResult struct {
	Books  []model.Book `json:"books"`
	Cursor *int64       `json:"cursor"`
}

// BookService defines the use cases of the bookshelf application.
type BookService interface {
	// List returns up to limit books in ascending id order, starting
	// after cursor when it is non-zero.
	List(ctx context.Context, limit int, cursor int64) (*BookListResult, error)

	// Create stores a new book and returns it as persisted. A non-zero
	// id forces the row's identity.
	Create(ctx context.Context, fields repository.Fields, id int64) (*model.Book, error)

	// Get returns a single book by its id.
	Get(ctx context.Context, id int64) (*model.Book, error)

	// Update replaces the book with the given id and returns the stored row.
	Update(ctx context.Context, id int64, fields repository.Fields) (*model.Book, error)

	// Delete removes a book and its stored cover image, if any.
	Delete(ctx context.Context, id int64) error

	// UploadCover stores the content as the book's cover image and
	// records the object key in the book's imageUrl column.
	UploadCover(ctx context.Context, id int64, r io.Reader, originalFilename, contentType string, size int64) (*model.Book, error)

	// CoverURL returns a time-limited download URL for the book's cover.
	CoverURL(ctx context.Context, id int64, expiry time.Duration) (string, error)
}

// bookService is a concrete implementation of BookService.
type bookService struct {
	store    storage.Storage
	repo     repository.BookRepository
	pageSize int
}

// NewBookService constructs a new BookService. pageSize is the list
// limit applied when the caller supplies none.
func NewBookService(store storage.Storage, repo repository.BookRepository, pageSize int) BookService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &bookService{store: store, repo: repo, pageSize: pageSize}
}

func (s *bookService) List(ctx context.Context, limit int, cursor int64) (*BookListResult, error) {
	if limit <= 0 {
		limit = s.pageSize
	}
	if cursor < 0 {
		cursor = 0
	}

	res, err := s.repo.List(ctx, repository.ListQuery{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	out := &BookListResult{Books: res.Books}
	if res.Cursor != 0 {
		c := res.Cursor
		out.Cursor = &c
	}
	return out, nil
}

func (s *bookService) Create(ctx context.Context, fields repository.Fields, id int64) (*model.Book, error) {
	stored, err := s.repo.Create(ctx, fields, id)
	if err != nil {
		return nil, err
	}
	return s.repo.Read(ctx, stored)
}

func (s *bookService) Get(ctx context.Context, id int64) (*model.Book, error) {
	book, err := s.repo.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrNotFound
	}
	return book, nil
}

func (s *bookService) Update(ctx context.Context, id int64, fields repository.Fields) (*model.Book, error) {
	fields = maps.Clone(fields)
	fields["id"] = id

	affected, err := s.repo.Update(ctx, fields)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.repo.Read(ctx, id)
}

// Delete removes the stored cover first, then the row. A storage failure
// keeps the row so the cover reference is not lost.
func (s *bookService) Delete(ctx context.Context, id int64) error {
	book, err := s.repo.Read(ctx, id)
	if err != nil {
		return err
	}
	if book == nil {
		return ErrNotFound
	}

	if book.ImageURL != nil && *book.ImageURL != "" {
		if err := s.store.Delete(ctx, *book.ImageURL); err != nil {
			return fmt.Errorf("delete cover: %w", err)
		}
	}

	_, err = s.repo.Delete(ctx, id)
	return err
}

func (s *bookService) UploadCover(ctx context.Context, id int64, r io.Reader, originalFilename, contentType string, size int64) (*model.Book, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	book, err := s.repo.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrNotFound
	}

	// Object name is a UUID plus the original extension.
	ext := filepath.Ext(originalFilename)
	key := filepath.ToSlash(filepath.Join("covers", uuid.New().String()+ext))

	_, err = s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload cover: %w", err)
	}

	fields := bookFields(book)
	fields["imageUrl"] = key
	if _, err := s.repo.Update(ctx, fields); err != nil {
		// Rollback: remove the object that now has no referencing row.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("record cover failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("record cover: %w", err)
	}

	if book.ImageURL != nil && *book.ImageURL != "" {
		// Previous cover is orphaned now; losing it on failure is harmless.
		_ = s.store.Delete(ctx, *book.ImageURL)
	}

	return s.repo.Read(ctx, id)
}

func (s *bookService) CoverURL(ctx context.Context, id int64, expiry time.Duration) (string, error) {
	book, err := s.repo.Read(ctx, id)
	if err != nil {
		return "", err
	}
	if book == nil {
		return "", ErrNotFound
	}
	if book.ImageURL == nil || *book.ImageURL == "" {
		return "", ErrNoCover
	}
	return s.store.PresignGet(ctx, *book.ImageURL, expiry)
}

// bookFields flattens a stored book into an update payload carrying all
// set columns, so a full-row replace keeps their current values.
func bookFields(b *model.Book) repository.Fields {
	f := repository.Fields{"id": b.ID}
	if b.Title != nil {
		f["title"] = *b.Title
	}
	if b.Author != nil {
		f["author"] = *b.Author
	}
	if b.PublishedDate != nil {
		f["publishedDate"] = *b.PublishedDate
	}
	if b.ImageURL != nil {
		f["imageUrl"] = *b.ImageURL
	}
	if b.Description != nil {
		f["description"] = *b.Description
	}
	if b.CreatedBy != nil {
		f["createdBy"] = *b.CreatedBy
	}
	if b.CreatedByID != nil {
		f["createdById"] = *b.CreatedByID
	}
	return f
}
