package db

import (
	"path/filepath"
	"testing"

	"cdstash/config"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(&config.Config{
		DBUser:     "cd",
		DBPassword: "p@ss:word",
		DBHost:     "db.internal",
		DBPort:     "3307",
		DBName:     "cdstash",
	})

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "cd", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "cdstash", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

func TestOpenGormSQLite(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "cdstash.db")}
	gdb, err := OpenGorm(cfg)
	require.NoError(t, err)
	defer CloseGorm(gdb)

	for _, table := range []string{"albums", "tracks", "playlists"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
	assert.True(t, gdb.Migrator().HasIndex("tracks", "idx_album_disc_track"))
}

func TestOpenGormRejectsOtherDrivers(t *testing.T) {
	_, err := OpenGorm(&config.Config{StoreDriver: config.StoreMongo})
	assert.Error(t, err)
}
