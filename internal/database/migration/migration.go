package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_books",
		SQL: "CREATE TABLE IF NOT EXISTS `books` (" +
			"`id` INT UNSIGNED NOT NULL AUTO_INCREMENT, " +
			"`title` VARCHAR(255), " +
			"`author` VARCHAR(255), " +
			"`publishedDate` DATE, " +
			"`imageUrl` VARCHAR(255), " +
			"`description` VARCHAR(255), " +
			"`createdBy` VARCHAR(255), " +
			"`createdById` VARCHAR(255), " +
			"PRIMARY KEY (`id`))",
	},
}

// EnsureSchema checks whether the 'books' table exists in the current
// database and creates it if it doesn't. Existing tables are left untouched,
// mismatched or not.
func EnsureSchema(ctx context.Context, db *sql.DB, loc *time.Location) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "schema_check",
		"status":    "starting",
	})

	var count int
	query := "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'books'"
	err := db.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "schema_check_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check books table: %v", err),
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check books table: %w", err)
	}

	if count > 0 {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "schema_skip",
			"status":      "success",
			"msg":         "books table already exists, skipping bootstrap",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "schema_bootstrap_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("bootstrap step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "schema_bootstrap_step",
			"status":           "success",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "schema_bootstrap_success",
		"status":      "success",
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
