package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/nextlevel-sports/academy-api/internal/models"
)

func TestTimeBlockRepositoryListActiveByDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimeBlockRepository(db)
	rows := sqlmock.NewRows([]string{"id", "professional_id", "unit_id", "date", "start_clock", "end_clock", "reason", "status", "created_at", "updated_at"}).
		AddRow("blk-1", nil, nil, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), "12:00", "13:00", nil, "active", time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("FROM time_blocks WHERE date = $1 AND LOWER(status) = $2 AND (professional_id IS NULL OR professional_id = $3)")).
		WithArgs("2024-03-04", models.TimeBlockActive, "pro-1").
		WillReturnRows(rows)

	blocks, err := repo.ListActiveByDate(context.Background(), "2024-03-04", "pro-1", "")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "12:00", blocks[0].StartClock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimeBlockRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_blocks")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	block := &models.TimeBlock{
		Date:       time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		StartClock: "10:00",
		EndClock:   "11:00",
	}
	require.NoError(t, repo.Create(context.Background(), block))
	require.NotEmpty(t, block.ID)
	require.Equal(t, models.TimeBlockActive, block.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTimeBlockRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM time_blocks WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNoRowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}
