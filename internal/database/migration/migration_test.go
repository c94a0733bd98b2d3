package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("table already exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err = EnsureSchema(ctx, db, time.UTC)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("table created when absent", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS `books`").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = EnsureSchema(ctx, db, time.UTC)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bootstrap failure surfaces", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS `books`").
			WillReturnError(errors.New("permission denied"))

		err = EnsureSchema(ctx, db, time.UTC)

		assert.ErrorContains(t, err, "create_table_books")
	})
}
