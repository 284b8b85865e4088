package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
	"financas/internal/storage"
)

func seedUser(t *testing.T, dbPath, username string) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.CreateUser(context.Background(), core.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)
}

func TestRun_GrantAndRevoke(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	seedUser(t, dbPath, "maria")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	err := run([]string{"-user", "maria", "-db", dbPath}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Admin granted to maria")

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	user, err := repo.GetUserByUsername(context.Background(), "maria")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	repo.Close()

	stdout.Reset()
	err = run([]string{"-user", "maria", "-revoke", "-db", dbPath}, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Admin revoked from maria")
}

func TestRun_UnknownUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	err := run([]string{"-user", "ghost", "-db", dbPath}, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestRun_MissingUserFlag(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	err := run([]string{}, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required flags: user")
	assert.Contains(t, stdout.String(), "Usage: addadmin")
}
