package buildings

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fps := []Footprint{
		{SourceID: "a", Centroid: offset(10), Confidence: 0.9, HeightMeters: 5},
		{SourceID: "b", Centroid: offset(20), Confidence: 0.8, HeightMeters: 4},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS buildings.footprints").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_merge_buildings_footprints"}, footprintColumns).WillReturnResult(2)
	mock.ExpectQuery(`INSERT INTO "buildings"."footprints" AS cur`).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(true).AddRow(true))
	mock.ExpectCommit()
	mock.ExpectRollback()

	res, err := Import(context.Background(), mock, fps)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Inserted)
	assert.Zero(t, res.Unchanged)
}

func TestImport_SchemaError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS buildings.footprints").
		WillReturnError(errors.New("permission denied for schema buildings"))

	_, err = Import(context.Background(), mock, []Footprint{{SourceID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestFootprintRows(t *testing.T) {
	rows, err := footprintRows([]Footprint{{SourceID: "a", Centroid: center, Confidence: 0.9, HeightMeters: 5}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(footprintColumns))
	assert.Equal(t, "a", rows[0][0])
	assert.IsType(t, []byte{}, rows[0][3])
	// no outline stored when the geometry is unknown
	assert.Nil(t, rows[0][4])
}
