package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFromEmptyRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := CopyFrom(context.Background(), mock, "leads", []string{"id", "doc"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := [][]any{
		{"a1", `{"businessname":"Alpha"}`},
		{"b2", `{"businessname":"Bravo"}`},
	}
	mock.ExpectCopyFrom(pgx.Identifier{"leads"}, []string{"id", "doc"}).WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "leads", []string{"id", "doc"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertValidation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{Table: "cities"}, [][]any{{"LS"}})
	assert.Error(t, err)

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:   "cities",
		Columns: []string{"postcode_area"},
	}, [][]any{{"LS"}})
	assert.Error(t, err)

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "cities",
		Columns:      []string{"postcode_area"},
		ConflictKeys: []string{"postcode_area"},
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
