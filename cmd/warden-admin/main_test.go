package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("WARDEN_DATABASE_DRIVER", "sqlite")
	t.Setenv("WARDEN_DATABASE_PATH", filepath.Join(t.TempDir(), "users.db"))
	t.Setenv("WARDEN_AUTH_BCRYPT_COST", "4")
	t.Setenv("WARDEN_LOGGING_LEVEL", "error")
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := runUser(args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestRunUser_Lifecycle(t *testing.T) {
	setupStore(t)

	out, err := runCmd(t, "secret123\n", "create", "--username", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "Created user alice")

	_, err = runCmd(t, "", "create", "--username", "alice", "--password", "other")
	require.ErrorContains(t, err, "already exists")

	out, err = runCmd(t, "", "show", "--username", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "Username: alice")
	require.Contains(t, out, "State:    active")

	out, err = runCmd(t, "", "disable", "--username", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "User alice disabled")

	out, err = runCmd(t, "", "show", "--username", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "State:    disabled")

	out, err = runCmd(t, "", "list")
	require.NoError(t, err)
	require.Contains(t, out, "alice")
	require.Contains(t, out, "1 of 1 users")
}

func TestRunUser_Errors(t *testing.T) {
	setupStore(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no subcommand", nil, "missing user subcommand"},
		{"unknown subcommand", []string{"rename"}, "unknown user subcommand"},
		{"missing username", []string{"show"}, "--username is required"},
		{"show unknown", []string{"show", "--username", "ghost"}, "user ghost not found"},
		{"enable unknown", []string{"enable", "--username", "ghost"}, "user ghost not found"},
		{"password too long", []string{"create", "--username", "bob", "--password", strings.Repeat("é", 40)}, "password is too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, "", tt.args...)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
