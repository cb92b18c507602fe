package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/gbiz-collector/internal/config"
	"github.com/Sternrassler/gbiz-collector/internal/testutil"
	"github.com/Sternrassler/gbiz-collector/pkg/csvfile"
	"github.com/Sternrassler/gbiz-collector/pkg/hojin"
	"github.com/Sternrassler/gbiz-collector/pkg/pagination"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// TestMain runs before all tests and loads .env if available
func TestMain(m *testing.M) {
	_ = godotenv.Load()

	os.Exit(m.Run())
}

// execute runs the root command in-process and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func useFake(t *testing.T) *testutil.FakeGBiz {
	t.Helper()

	fake := testutil.NewFakeGBiz(testToken)
	t.Cleanup(fake.Close)

	t.Setenv(config.EnvToken, testToken)
	t.Setenv(config.EnvBaseURL, fake.URL())
	t.Setenv(config.EnvRedisURL, "")
	return fake
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "config error", err: &config.ConfigError{Field: config.EnvToken, Reason: "is not set"}, want: exitConfig},
		{name: "wrapped validation error", err: fmt.Errorf("dump: %w", &hojin.ValidationError{Field: "prefecture", Value: "48"}), want: exitConfig},
		{name: "fetch error", err: &pagination.FetchError{Prefecture: "13", Page: 1, Err: errors.New("HTTP 500")}, want: exitFatal},
		{name: "io error", err: &csvfile.IOError{Op: "open", Path: "x.csv", Err: os.ErrNotExist}, want: exitFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestSeconds(t *testing.T) {
	d, err := seconds("--sleep", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "200ms", d.String())

	d, err = seconds("--sleep", 0)
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = seconds("--sleep", -1)
	var cerr *config.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "--sleep", cerr.Field)
}

func TestFilterFlags_ToFilter(t *testing.T) {
	f := filterFlags{pref: "13", corporateType: "301", existFlag: "true", limit: 100, maxPages: 3}
	filter, err := f.toFilter()
	require.NoError(t, err)
	assert.Equal(t, hojin.ExistTrue, filter.ExistFlag)
	assert.Equal(t, 3, filter.MaxPages)

	f.pref = "99"
	_, err = f.toFilter()
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestPipelineCommand(t *testing.T) {
	fake := useFake(t)
	fake.AddCorporations("13", testutil.Corporations(1010001000001, 5)...)
	fake.FailDetail("1010001000003", http.StatusInternalServerError)

	dir := t.TempDir()
	listOut := filepath.Join(dir, "list.csv")
	enrichOut := filepath.Join(dir, "enriched.csv")

	out, err := execute(t, "pipeline",
		"--pref", "13", "--limit", "3", "--sleep", "0",
		"--list-out", listOut, "--enrich-out", enrichOut)
	require.NoError(t, err)

	assert.Contains(t, out, "OK: 5 rows appended -> "+listOut)
	assert.Contains(t, out, "OK: 4 rows appended -> "+enrichOut+" (errors: 1)")

	keys, err := csvfile.ReadColumn(enrichOut, "corporate_number")
	require.NoError(t, err)
	assert.Len(t, keys, 4)
}

func TestDumpCommand_FetchErrorExitsFatal(t *testing.T) {
	fake := useFake(t)
	fake.SetResponse("/v1/hojin", testutil.MockResponse{StatusCode: http.StatusInternalServerError})

	_, err := execute(t, "dump", "--pref", "13", "--sleep", "0", "--out", filepath.Join(t.TempDir(), "list.csv"))
	require.Error(t, err)
	assert.Equal(t, exitFatal, exitCode(err))
	assert.Contains(t, err.Error(), "prefecture 13")
}

func TestDumpCommand_InvalidPrefecture(t *testing.T) {
	fake := useFake(t)

	_, err := execute(t, "dump", "--pref", "48", "--out", filepath.Join(t.TempDir(), "list.csv"))
	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
	assert.Equal(t, 0, fake.GetRequestCount())
}

func TestHydrateCommand_MissingToken(t *testing.T) {
	t.Setenv(config.EnvToken, "")

	_, err := execute(t, "hydrate", "--in", filepath.Join(t.TempDir(), "list.csv"))
	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
	assert.Contains(t, err.Error(), config.EnvToken)
}

func TestHydrateCommand_MissingInput(t *testing.T) {
	useFake(t)
	dir := t.TempDir()

	_, err := execute(t, "hydrate", "--sleep", "0",
		"--in", filepath.Join(dir, "missing.csv"),
		"--out", filepath.Join(dir, "enriched.csv"))
	require.Error(t, err)
	assert.Equal(t, exitFatal, exitCode(err))
}

func TestUnknownFlag(t *testing.T) {
	_, err := execute(t, "dump", "--no-such-flag")
	require.Error(t, err)
	assert.Equal(t, exitConfig, exitCode(err))
}

func TestHydrateCommand_RejectedTokenExitsFatal(t *testing.T) {
	fake := useFake(t)
	t.Setenv(config.EnvToken, "revoked-token")

	dir := t.TempDir()
	in := filepath.Join(dir, "list.csv")
	require.NoError(t, os.WriteFile(in, []byte("corporate_number,name\n1010001000001,a\n1010001000002,b\n"), 0o644))

	out, err := execute(t, "hydrate", "--sleep", "0", "--in", in, "--out", filepath.Join(dir, "enriched.csv"))
	require.Error(t, err)
	assert.Equal(t, exitFatal, exitCode(err))
	assert.NotContains(t, out, "OK:")
	assert.Equal(t, 1, fake.GetRequestCount())
}
