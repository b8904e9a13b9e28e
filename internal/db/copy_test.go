package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplesTable = pgx.Identifier{"wind", "samples"}

func TestCopyRows_EmptyRows(t *testing.T) {
	n, err := CopyRows(context.TODO(), nil, samplesTable, []string{"ts"}, [][]any{})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyRows_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(samplesTable, []string{"ts", "u", "v"}).WillReturnResult(2)

	rows := [][]any{{"2024-01-01", 1.0, 2.0}, {"2024-01-02", 3.0, 4.0}}
	n, err := CopyRows(context.Background(), mock, samplesTable, []string{"ts", "u", "v"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyRows_RowWidthMismatch(t *testing.T) {
	rows := [][]any{{"2024-01-01", 1.0, 2.0}, {"2024-01-02", 3.0}}
	_, err := CopyRows(context.Background(), nil, samplesTable, []string{"ts", "u", "v"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1 has 2 values for 3 columns")
}

func TestCopyRows_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(samplesTable, []string{"ts"}).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyRows(context.Background(), mock, samplesTable, []string{"ts"}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `copy into "wind"."samples"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnect_EmptyDSN(t *testing.T) {
	_, err := Connect(context.Background(), "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url is required")
}
