package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"bookshelf/internal/database"
	"bookshelf/internal/repository"
	"bookshelf/internal/service"
)

// coverURLExpiry bounds how long a presigned cover download link stays valid.
const coverURLExpiry = 15 * time.Minute

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, delegate to the service, translate errors.
func RegisterRoutes(app *fiber.App, conn database.Connector, bookSvc service.BookService) {
	// Health endpoint: opens a connection the same way every data
	// operation does and pings it.
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		db, err := conn.Connect(ctx)
		if err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// List books with limit & cursor
	app.Get("/books", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil || limit < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		cursor, err := strconv.ParseInt(c.Query("cursor", "0"), 10, 64)
		if err != nil || cursor < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_CURSOR", "invalid cursor")
		}

		res, err := bookSvc.List(c.UserContext(), limit, cursor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	})

	// Create book; an optional ?id= forces the row's identity
	app.Post("/books", func(c *fiber.Ctx) error {
		fields, err := parseFields(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}
		var forced int64
		if raw := c.Query("id"); raw != "" {
			forced, err = strconv.ParseInt(raw, 10, 64)
			if err != nil || forced <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
			}
		}

		book, err := bookSvc.Create(c.UserContext(), fields, forced)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(book)
	})

	// Get book by id
	app.Get("/books/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		book, err := bookSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(book)
	})

	// Replace book by id. Omitted fields are cleared, not kept.
	app.Put("/books/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fields, err := parseFields(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object")
		}
		book, err := bookSvc.Update(c.UserContext(), id, fields)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(book)
	})

	// Delete book by id
	app.Delete("/books/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := bookSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Upload cover image (multipart/form-data, field name: image)
	app.Post("/books/:id/cover", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fh, err := c.FormFile("image")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_REQUIRED", "image file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		book, err := bookSvc.UploadCover(c.UserContext(), id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(book)
	})

	// Download cover image via a time-limited redirect
	app.Get("/books/:id/cover", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := bookSvc.CoverURL(c.UserContext(), id, coverURLExpiry)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Redirect(u, fiber.StatusFound)
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// parseFields decodes the request body into a book payload. Field-name
// validation against the schema happens in the repository, not here.
func parseFields(c *fiber.Ctx) (repository.Fields, error) {
	fields := repository.Fields{}
	if len(c.Body()) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(c.Body(), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
