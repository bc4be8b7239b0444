package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// testEnv is an isolated upload directory, database directory and
// configuration file.
type testEnv struct {
	dir        string
	uploadDir  string
	dbDir      string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		uploadDir:  filepath.Join(dir, "uploads"),
		dbDir:      filepath.Join(dir, "db"),
		configPath: filepath.Join(dir, "docpointer.yaml"),
	}
	content := fmt.Sprintf("upload_dir: %q\ndb_dir: %q\n", env.uploadDir, env.dbDir)
	if err := os.WriteFile(env.configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// writeDocument writes a document into the environment and returns its path.
func (e *testEnv) writeDocument(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}
	return path
}

// run executes the root command with the environment's config file.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
