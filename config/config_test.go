package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSQLite(t *testing.T) {
	path := writeTempConfig(t, `
database:
  driver: sqlite
  sqlite:
    path: calib_data.db
logging:
  log_to_console: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "calib_data.db", cfg.GetDSN())

	// Defaults fill in for omitted sections
	require.Equal(t, "result.log", cfg.Logging.LogFile)
	require.Equal(t, "info", cfg.Logging.LogLevel)
	require.Equal(t, "split_aggregate.csv", cfg.Split.AggregateFile)
	require.Equal(t, "/mnt/lsdf", cfg.Mount.MountPoint)
	require.Equal(t, "%s-heliostat-catalog.json", cfg.Catalog.FileTemplate)
}

func TestLoadMySQLDSN(t *testing.T) {
	path := writeTempConfig(t, `
database:
  driver: mysql
  mysql:
    host: db.example.com
    port: 3306
    user: calib
    password: secret
    dbname: calib_data
    charset: utf8mb4
    parse_time: true
    loc: Local
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t,
		"calib:secret@tcp(db.example.com:3306)/calib_data?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.GetDSN())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeTempConfig(t, `
database:
  driver: oracle
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestLoadRejectsIncompleteDriverConfig(t *testing.T) {
	path := writeTempConfig(t, `
database:
  driver: postgres
  postgres:
    host: localhost
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "postgres user is required")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
