package migration

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_OrdersAndChecksums(t *testing.T) {
	fsys := fstest.MapFS{
		"V2__second.sql":   {Data: []byte("SELECT 2;")},
		"V1__first.sql":    {Data: []byte("  SELECT 1;\n")},
		"README.md":        {Data: []byte("ignored")},
		"V3__bad name.sql": {Data: []byte("SELECT 3;")},
	}

	migs, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 2)

	assert.Equal(t, int64(1), migs[0].Version)
	assert.Equal(t, "first", migs[0].Name)
	assert.Equal(t, "SELECT 1;", migs[0].SQL)
	assert.Len(t, migs[0].Checksum, 64)
	assert.Equal(t, int64(2), migs[1].Version)
}

func TestLoadMigrations_Duplicate(t *testing.T) {
	fsys := fstest.MapFS{
		"V1__a.sql":  {Data: []byte("SELECT 1;")},
		"V01__b.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := LoadMigrations(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version")
}

func TestLoadMigrations_Empty(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"V1__empty.sql": {Data: []byte("  ")}})
	require.Error(t, err)
}

func TestRun_RequiresInputs(t *testing.T) {
	require.Error(t, Runner{}.Run(context.Background(), nil))
}
