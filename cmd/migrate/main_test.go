package main

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Up", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS charges`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, run(ctx, db, "up"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Down", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DROP TABLE IF EXISTS charge_webhooks`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, run(ctx, db, "down"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Down Failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DROP TABLE`).WillReturnError(errors.New("locked"))

		err = run(ctx, db, "down")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "rollback failed")
	})

	t.Run("Unknown Mode", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		err = run(ctx, db, "sideways")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown mode")
	})
}
