package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/couchdesk/internal/app"
	"github.com/vk/couchdesk/internal/cli"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	Stub      *CouchStub
}

// Harness boots the full application against a fixture desk and a CouchDB
// stub. Each Run constructs a fresh app so successive runs observe file
// changes made between them.
type Harness struct {
	t          *testing.T
	dir        string
	configPath string
	stub       *CouchStub
}

// NewHarness writes the fixture files into a temporary desk directory and
// prepares a configuration file pointing at a fresh CouchDB stub. Fixture
// keys are desk-relative paths, e.g. "example/shows/item.js".
func NewHarness(t *testing.T, files map[string]string) *Harness {
	t.Helper()

	dir := t.TempDir()
	stub := NewCouchStub(t, "testdb")

	h := &Harness{
		t:          t,
		dir:        dir,
		configPath: filepath.Join(dir, "couchdesk.hcl"),
		stub:       stub,
	}
	h.WriteFiles(files)

	config := fmt.Sprintf(`
couchdb {
  url      = %q
  database = "testdb"
}

desk {
  paths = [%q]
}
`, stub.URL(), filepath.Join(dir, "resources"))
	require.NoError(t, os.WriteFile(h.configPath, []byte(config), 0644))

	return h
}

// Stub returns the harness's CouchDB stub.
func (h *Harness) Stub() *CouchStub {
	return h.stub
}

// WriteFiles adds or overwrites desk fixture files.
func (h *Harness) WriteFiles(files map[string]string) {
	h.t.Helper()
	for name, content := range files {
		full := filepath.Join(h.dir, "resources", "design-docs", filepath.FromSlash(name))
		require.NoError(h.t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(h.t, os.WriteFile(full, []byte(content), 0644))
	}
}

// RemoveFile deletes a desk fixture file.
func (h *Harness) RemoveFile(name string) {
	h.t.Helper()
	full := filepath.Join(h.dir, "resources", "design-docs", filepath.FromSlash(name))
	require.NoError(h.t, os.Remove(full))
}

// Run boots a fresh application and performs one synchronization pass. Extra
// CLI flags go before the positional config path.
func (h *Harness) Run(extraArgs ...string) *HarnessResult {
	h.t.Helper()

	logBuffer := &SafeBuffer{}
	args := append(append([]string{"-log-level", "debug", "-log-format", "text"}, extraArgs...), h.configPath)

	appConfig, shouldExit, err := cli.Parse(args, logBuffer)
	require.NoError(h.t, err)
	require.False(h.t, shouldExit)

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		testApp := app.NewApp(logBuffer, appConfig)
		runErr = testApp.Run(context.Background())
	}()

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		Stub:      h.stub,
	}
}
