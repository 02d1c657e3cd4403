package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/deferbench/report"
	"github.com/weiihann/deferbench/result"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := newRootCmd(logger, new(slog.LevelVar))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func TestRunWritesResultsAndMetrics(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "results.json")
	metrics := filepath.Join(dir, "metrics.prom")

	stdout, err := execute(t, "run", output,
		"--trials", "1", "--callbacks", "2", "--metrics-file", metrics)
	require.NoError(t, err)

	assert.Contains(t, stdout, "test_deferred_blocked")
	assert.Contains(t, stdout, "without overhead evaluated in test_deferred")

	set, err := result.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 85, set.Len())
	assert.NoError(t, set.Validate())

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "deferbench_callback_cost_microseconds")
	assert.Contains(t, string(data), "deferbench_feature_cost_microseconds")
}

func TestRunRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "run", "--trials", "0")
	assert.ErrorIs(t, err, result.ErrConfiguration)

	_, err = execute(t, "run", "a.json", "b.json")
	assert.Error(t, err)

	_, err = execute(t, "--log-level", "loud", "list")
	assert.Error(t, err)
}

func TestRunConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "deferbench.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("trials: 0\n"), 0o644))

	_, err := execute(t, "run", "--config", cfgPath)
	assert.ErrorIs(t, err, result.ErrConfiguration)

	_, err = execute(t, "run", "--config", cfgPath, "--trials", "1", "--callbacks", "1")
	assert.ErrorIs(t, err, result.ErrConfiguration, "file values are validated on load")
}

func writeResults(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")

	writeResults(t, a, `[{"name":"x","value":10.0,"base_name":null},{"name":"x_base","value":2.0,"base_name":null}]`)
	writeResults(t, b, `[{"name":"x","value":20.0,"base_name":null},{"name":"x_base","value":2.0,"base_name":null}]`)

	stdout, err := execute(t, "compare", a, b)
	require.NoError(t, err)
	assert.Contains(t, stdout, "x     : 10.00us vs 20.00us (+2.000x diff)")
}

func TestCompareErrors(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	bad := filepath.Join(dir, "bad.json")

	writeResults(t, a, `[{"name":"y","value":15.0,"base_name":"y_base"},{"name":"y_base","value":5.0,"base_name":null}]`)
	writeResults(t, b, `[{"name":"y","value":15.0,"base_name":"y_base"}]`)
	writeResults(t, bad, `{not json`)

	_, err := execute(t, "compare", a, b)
	assert.ErrorIs(t, err, report.ErrComparisonMismatch)
	assert.ErrorContains(t, err, "y_base")

	_, err = execute(t, "compare", a, bad)
	assert.ErrorIs(t, err, result.ErrSerialization)
	assert.ErrorContains(t, err, bad)

	noValue := filepath.Join(dir, "novalue.json")
	writeResults(t, noValue, `[{"name":"y","base_name":"y_base"},{"name":"y_base","value":5.0,"base_name":null}]`)

	_, err = execute(t, "compare", a, noValue)
	assert.ErrorIs(t, err, result.ErrSerialization)

	_, err = execute(t, "compare", a)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	stdout, err := execute(t, "list")
	require.NoError(t, err)

	assert.Contains(t, stdout, "85 benchmarks")
	assert.Contains(t, stdout, "test_yield_10_yield_10_deferred_returnValue_blocked")
}
