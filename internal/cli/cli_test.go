package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spacenav/internal/config"
	"spacenav/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// newBackend starts the local backend with demo data and isolates config.
func newBackend(t *testing.T) string {
	t.Helper()
	t.Setenv("SPACENAV_CONFIG_DIR", t.TempDir())
	t.Setenv("SPACENAV_TUI_GLYPHS", "ascii")

	ctx := context.Background()
	db, handler, err := openBackend(ctx, config.ServeConfig{DB: ":memory:"}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func mustData(t *testing.T, args ...string) any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	require.NoError(t, err, "spacenav %v\nstderr:\n%s", args, stderr)
	var env map[string]any
	require.NoError(t, json.Unmarshal(stdout, &env), "stdout:\n%s", stdout)
	require.Contains(t, env, "data")
	require.Contains(t, env, "_hints")
	return env["data"]
}

func TestSites(t *testing.T) {
	url := newBackend(t)
	data := mustData(t, "--api-url", url, "sites")
	sites, ok := data.([]any)
	require.True(t, ok)
	require.Len(t, sites, 3)
	assert.Equal(t, "San Jose", sites[0].(map[string]any)["name"])
}

func TestSpaces_JSONTree(t *testing.T) {
	url := newBackend(t)
	data := mustData(t, "--api-url", url, "spaces", "--site", "1")
	roots, ok := data.([]any)
	require.True(t, ok)
	require.Len(t, roots, 2)
	main := roots[0].(map[string]any)
	assert.Equal(t, "Main Building", main["name"])
	assert.Len(t, main["children"], 2)
}

func TestSpaces_TextWithSelection(t *testing.T) {
	url := newBackend(t)
	stdout, stderr, err := runCLI(t, []string{"--api-url", url, "spaces", "--site", "1", "--text", "--select-space", "3"})
	require.NoError(t, err, string(stderr))
	out := string(stdout)
	assert.Contains(t, out, "v [-] Main Building (7)\n")
	assert.Contains(t, out, "  v [x] Engineering (3)\n")
	assert.Contains(t, out, "      * [x] Lab A Bench #7\n")
	assert.Contains(t, out, "    v [ ] Lab B\n")
	assert.Contains(t, out, "  * [ ] Main Entrance #1\n")
}

func TestSpaces_SelectionStates(t *testing.T) {
	url := newBackend(t)
	data := mustData(t, "--api-url", url, "spaces", "--site", "1", "--select-stream", "1")
	m := data.(map[string]any)
	require.Len(t, m["selected"], 1)
	states := m["states"].([]any)
	first := states[0].(map[string]any)
	assert.Equal(t, "indeterminate", first["state"])
	assert.EqualValues(t, 1, first["selected"])
	assert.EqualValues(t, 7, first["total"])
}

func TestSpaces_Errors(t *testing.T) {
	url := newBackend(t)

	_, stderr, err := runCLI(t, []string{"--api-url", url, "spaces"})
	require.Error(t, err)
	assert.Contains(t, string(stderr), "no site selected")

	_, _, err = runCLI(t, []string{"--api-url", url, "spaces", "--site", "404"})
	require.Error(t, err)
	assert.Equal(t, "site not found: 404", err.Error())

	_, _, err = runCLI(t, []string{"--api-url", url, "spaces", "--site", "3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Internal server error")

	_, _, err = runCLI(t, []string{"--api-url", url, "spaces", "--site", "1", "--select-space", "99"})
	require.Error(t, err)
	assert.Equal(t, "space not found: 99", err.Error())
}

func TestStreams_AddAndRemove(t *testing.T) {
	url := newBackend(t)

	data := mustData(t, "--api-url", url, "streams", "add", "--space", "5", "--name", "  Lab B Door ")
	added := data.(map[string]any)
	assert.EqualValues(t, 43, added["id"])
	assert.Equal(t, "Lab B Door", added["name"])

	_, _, err := runCLI(t, []string{"--api-url", url, "streams", "add", "--space", "5", "--name", "lab b door"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data = mustData(t, "--api-url", url, "streams", "rm", "43")
	assert.Equal(t, true, data.(map[string]any)["deleted"])

	_, _, err = runCLI(t, []string{"--api-url", url, "streams", "rm", "43"})
	require.Error(t, err)
	assert.Equal(t, "stream not found: 43", err.Error())
}

func TestStreams_Validation(t *testing.T) {
	url := newBackend(t)

	_, _, err := runCLI(t, []string{"--api-url", url, "streams", "add", "--space", "5", "--name", "   "})
	require.Error(t, err)

	_, _, err = runCLI(t, []string{"--api-url", url, "streams", "add", "--name", "x"})
	require.EqualError(t, err, "missing --space")

	_, _, err = runCLI(t, []string{"--api-url", url, "streams", "rm", "-3"})
	require.Error(t, err)
}

func TestFormats(t *testing.T) {
	url := newBackend(t)
	stdout, _, err := runCLI(t, []string{"--api-url", url, "--format", "edn", "sites"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(stdout), `{:_hints [`), string(stdout))
	assert.Contains(t, string(stdout), `:name "San Jose"`)

	stdout, _, err = runCLI(t, []string{"--api-url", url, "--format", "yaml", "sites"})
	require.NoError(t, err)
	assert.Contains(t, string(stdout), "name: Toronto")

	stdout, _, err = runCLI(t, []string{"--api-url", url, "--format", "yaml", "spaces", "--site", "1"})
	require.NoError(t, err)
	var env struct {
		Data []map[string]any `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal(stdout, &env), string(stdout))
	require.NotEmpty(t, env.Data)
	assert.Equal(t, 1, env.Data[0]["id"], "space ids stay numeric")
	streams := env.Data[0]["streams"].([]any)
	require.NotEmpty(t, streams)
	assert.Equal(t, 1, streams[0].(map[string]any)["id"], "stream ids stay numeric")
	assert.NotContains(t, string(stdout), `id: "`)
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SPACENAV_CONFIG_DIR", dir)
	path := filepath.Join(dir, "config.yaml")

	data := mustData(t, "config", "init")
	assert.Equal(t, path, data.(map[string]any)["path"])
	_, err := os.Stat(path)
	require.NoError(t, err)

	_, _, err = runCLI(t, []string{"config", "init"})
	require.Error(t, err)
	mustData(t, "config", "init", "--force")

	t.Setenv("SPACENAV_API_URL", "http://example.test:9000/")
	shown := mustData(t, "config").(map[string]any)
	assert.Equal(t, "http://example.test:9000", shown["apiUrl"])
	assert.Equal(t, path, shown["file"])

	shown = mustData(t, "--api-url", "http://flag.test", "config").(map[string]any)
	assert.Equal(t, "http://flag.test", shown["apiUrl"])
}

func TestUnknownFormatFails(t *testing.T) {
	url := newBackend(t)
	_, _, err := runCLI(t, []string{"--api-url", url, "--format", "xml", "sites"})
	require.Error(t, err)
}
