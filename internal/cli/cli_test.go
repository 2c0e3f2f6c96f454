package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmcov/jvmcov/pkg/execdata"
)

func TestParseConfigDefaults(t *testing.T) {
	conf, err := ParseConfig("")
	require.NoError(t, err)
	assert.Equal(t, "info", conf.LogLevel)
	assert.Equal(t, runtime.GOMAXPROCS(0), conf.Analyze.Jobs)
	assert.False(t, conf.Analyze.FailOnWarning)
}

func TestParseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log_level: debug\nanalyze:\n  jobs: 2\n  fail_on_warning: true\n",
	), 0o644))

	conf, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, 2, conf.Analyze.Jobs)
	assert.True(t, conf.Analyze.FailOnWarning)
}

func TestParseConfigMissingFile(t *testing.T) {
	_, err := ParseConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestCollectClassFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "com", "example")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	for _, name := range []string{
		filepath.Join(sub, "Foo.class"),
		filepath.Join(sub, "Bar.class"),
		filepath.Join(sub, "notes.txt"),
	} {
		require.NoError(t, os.WriteFile(name, nil, 0o644))
	}
	extra := filepath.Join(dir, "Extra.bin")
	require.NoError(t, os.WriteFile(extra, nil, 0o644))

	paths, err := collectClassFiles([]string{dir, extra})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(sub, "Foo.class"),
		filepath.Join(sub, "Bar.class"),
		extra,
	}, paths)
}

func loaderWithData(t *testing.T) *execdata.Loader {
	t.Helper()

	var buf bytes.Buffer
	w, err := execdata.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteSession(execdata.SessionInfo{
		ID:    "s1",
		Start: time.UnixMilli(1000),
		Dump:  time.UnixMilli(2000),
	}))
	require.NoError(t, w.WriteExecution(&execdata.ExecutionData{
		ID:     0xABCD,
		Name:   "com/example/Foo",
		Probes: []bool{true, false, true},
	}))

	path := filepath.Join(t.TempDir(), "report.exec")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	loader := execdata.NewLoader(nil)
	require.NoError(t, loader.Load(path))
	return loader
}

func TestDumpText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, dumpText(&out, loaderWithData(t)))

	assert.Contains(t, out.String(), "session s1")
	assert.Contains(t, out.String(), "000000000000abcd")
	assert.Contains(t, out.String(), "com/example/Foo")
	assert.Contains(t, out.String(), "2 of 3 probes hit")
}

func TestDumpJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, dumpJSON(&out, loaderWithData(t)))

	var decoded struct {
		Sessions []dumpSession `json:"sessions"`
		Entries  []dumpEntry   `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded.Sessions, 1)
	assert.Equal(t, "s1", decoded.Sessions[0].ID)
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, "000000000000abcd", decoded.Entries[0].ID)
	assert.Equal(t, 2, decoded.Entries[0].Hits)
	assert.Equal(t, 3, decoded.Entries[0].Probes)
}
