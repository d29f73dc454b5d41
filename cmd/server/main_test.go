package main

import (
	"net"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richmondazadze/scantotap-sub001/internal/store"
)

func TestRunReturnsListenError(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer busy.Close()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "scan2tap.db")
	t.Setenv("PORT", strconv.Itoa(busy.Addr().(*net.TCPAddr).Port))
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("MEDIA_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("SCAN2TAP_CONFIG", "")

	err = run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen and serve")

	// Startup got as far as migrating before the listener failed.
	db, err := store.NewStore(dbPath)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())
}

func TestHosts(t *testing.T) {
	assert.Equal(t, []string{"app.scan2tap.com", "localhost:5173"},
		hosts([]string{"https://app.scan2tap.com", "*", "localhost:5173"}))
}
