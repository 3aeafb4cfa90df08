package columnar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	columns := []ColumnDef{
		{Name: "id", Type: TypeInteger},
		{Name: "name", Type: TypeString},
		{Name: "active", Type: TypeBoolean},
		{Name: "balance", Type: TypeFloat},
		{Name: "created_at", Type: TypeTimestamp},
		{Name: "birth_date", Type: TypeDate},
		{Name: "blob", Type: TypeBinary},
	}

	now := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	birth := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)

	w := NewWriter(columns)
	w.AppendRow(map[string]any{
		"id": 1, "name": "ada", "active": true, "balance": 12.5,
		"created_at": EncodeTimestamp(now), "birth_date": EncodeDate(birth),
		"blob": []byte("hello"),
	})
	w.AppendRow(map[string]any{
		"id": 2, "name": nil, "active": false, "balance": nil,
		"created_at": nil, "birth_date": nil, "blob": nil,
	})

	require.Equal(t, 2, w.RowCount())

	path := filepath.Join(t.TempDir(), "students.dmcf")
	require.NoError(t, w.WriteFile(path))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), table.RowCount)
	assert.Equal(t, columns, table.Columns)

	row0 := table.Row(0)
	assert.Equal(t, "ada", row0["name"])
	assert.Equal(t, true, row0["active"])

	gotTime, err := DecodeTimestamp(row0["created_at"])
	require.NoError(t, err)
	assert.True(t, now.Equal(gotTime))

	gotDate, err := DecodeDate(row0["birth_date"])
	require.NoError(t, err)
	assert.True(t, birth.Equal(gotDate))

	gotBlob, err := DecodeBinary(row0["blob"])
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), gotBlob)

	row1 := table.Row(1)
	assert.Nil(t, row1["name"])
	assert.Nil(t, row1["balance"])
	assert.Nil(t, row1["created_at"])
}

func TestReadFileRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.dmcf")
	require.NoError(t, os.WriteFile(path, []byte("not a columnar file"), 0o600))

	_, err := ReadFile(path)
	require.Error(t, err)
}
