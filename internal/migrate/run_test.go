package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedMigrations(t *testing.T) {
	migrations, err := load(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, "0001_users", migrations[0].version)
	assert.Contains(t, migrations[0].body, "CREATE TABLE IF NOT EXISTS users")
	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].version, migrations[i].version)
	}
	last := migrations[len(migrations)-1]
	assert.Contains(t, last.body, "CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_key")
}

func TestLoad_OrdersAndFilters(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.sql":  {Data: []byte("SELECT 2;")},
		"migrations/0001_a.sql":  {Data: []byte("SELECT 1;")},
		"migrations/README.md":   {Data: []byte("docs")},
		"migrations/sub/x.sql":   {Data: []byte("SELECT 3;")},
		"migrations/0010_c.sql":  {Data: []byte("SELECT 10;")},
		"migrations/0003_d.sqlx": {Data: []byte("nope")},
	}

	migrations, err := load(fsys)
	require.NoError(t, err)

	var versions []string
	for _, m := range migrations {
		versions = append(versions, m.version)
	}
	assert.Equal(t, []string{"0001_a", "0002_b", "0010_c"}, versions)
}

func TestLoad_RejectsEmptyFile(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0001_empty.sql": {Data: []byte("  \n")},
	}
	_, err := load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_empty.sql")
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := load(fstest.MapFS{})
	require.Error(t, err)
}
