package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "campus-eats", cmd.Use)
	assert.Contains(t, cmd.Long, "campus vendors")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "migrate", "seed"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	port := serve.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "server:\n  mode: test\n" +
		"database:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "cli.db") + "\n" +
		"jobs:\n  subscription_sweep: \"\"\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateAndSeed(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "migrated")

	out, err = run(t, "seed", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 5 users")

	out, err = run(t, "seed", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing seeded")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "migrate", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestUnexpectedArgs(t *testing.T) {
	_, err := run(t, "migrate", "extra")
	assert.Error(t, err)
}
