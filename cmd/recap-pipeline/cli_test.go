package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farleyknight/legal-outcome-prediction/internal/config"
	"github.com/farleyknight/legal-outcome-prediction/internal/testutil"
)

// writeTestConfig points the CLI at a mock server with fast rate limiting
// and returns the config directory.
func writeTestConfig(t *testing.T, mockURL string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`{
		"base_url": %q,
		"rate_limit_interval": "1ms",
		"max_attempts": 2,
		"cache_dir": %q,
		"unmatched_log_path": %q,
		"metrics_path": %q
	}`, mockURL,
		filepath.Join(dir, "cache"),
		filepath.Join(dir, "unmatched_cases.log"),
		filepath.Join(dir, "match_metrics.json"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0o644))
	return dir
}

func TestCheckCommand(t *testing.T) {
	mock := testutil.NewMockCourtListener()
	defer mock.Close()

	t.Setenv(tokenEnvVar, "test-token")
	dir := writeTestConfig(t, mock.URL())

	app := newCLIApp()
	err := app.Run([]string{"recap-pipeline", "--config-dir", dir, "check"})
	require.NoError(t, err)
	assert.Equal(t, "Token test-token", mock.LastRequestHeader.Get("Authorization"))
}

func TestCheckCommandMissingToken(t *testing.T) {
	t.Setenv(tokenEnvVar, "")

	app := newCLIApp()
	err := app.Run([]string{"recap-pipeline", "--config-dir", t.TempDir(), "check"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), tokenEnvVar)
}

func TestRunCommandEndToEnd(t *testing.T) {
	mock := testutil.NewMockCourtListener()
	defer mock.Close()

	mock.SetSearchResponse("nysd", "1:19-cv-01234", testutil.NewHealthyResponse(
		`{"count":1,"next":null,"previous":null,"results":[{"id":77,"docket_number":"1:19-cv-01234","date_filed":"2019-03-04","date_terminated":"2020-06-01"}]}`))
	mock.SetEntryPage(77, "", testutil.NewHealthyResponse(
		`{"count":1,"next":null,"previous":null,"results":[{"id":101,"entry_number":1,"date_filed":"2019-03-04","description":"COMPLAINT filed"}]}`))

	t.Setenv(tokenEnvVar, "test-token")
	dir := writeTestConfig(t, mock.URL())

	dataPath := filepath.Join(dir, "fjc_civil.csv")
	dataset := "DISTRICT,DOCKET,NOS,DISP,JUDGMENT,FILEDATE,TERMDATE\nNYSD,191234,442,4,1,20190304,20200601\n"
	require.NoError(t, os.WriteFile(dataPath, []byte(dataset), 0o644))
	outPath := filepath.Join(dir, "output.csv")

	app := newCLIApp()
	err := app.Run([]string{
		"recap-pipeline", "--config-dir", dir,
		"run", "--data", dataPath, "--out", outPath, "--sample", "10",
	})
	require.NoError(t, err)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "nysd:191234", rows[1][0])
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, err := openStore(&config.Config{CacheBackend: "memcache"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memcache")
}
