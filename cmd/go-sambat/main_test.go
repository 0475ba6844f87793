package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-sambat/internal/config"
)

// runCLI executes the root command against an isolated settings file.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLIWith(t, "language: en\n", args...)
}

func runCLIWith(t *testing.T, settings string, args ...string) (string, error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "go-sambat.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(settings), config.FilePermUserRW))

	a := &cliApp{}
	defer a.close()

	root := newRootCommand(a)
	var out, logs bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(append([]string{"--" + config.FlagConfig, cfgPath}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_ToBS(t *testing.T) {
	out, err := runCLI(t, "tobs", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2081-09-17\t17 Poush 2081\n", out)

	out, err = runCLI(t, "--lang", "ne", "tobs", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2080-11-17\t१७ फागुन २०८०\n", out)
}

func TestCLI_ToBS_Errors(t *testing.T) {
	_, err := runCLI(t, "tobs", "2023-02-29")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrArgDate)

	_, err = runCLI(t, "tobs", "2040-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2090-01-01", "Range errors suggest the nearest supported date")

	_, err = runCLI(t, "tobs")
	assert.Error(t, err, "A date argument is required")
}

func TestCLI_ToAD(t *testing.T) {
	out, err := runCLI(t, "toad", "2080-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-04-14\t14 April 2023\n", out)

	_, err = runCLI(t, "toad", "2081-01-40")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrConvert)

	_, err = runCLI(t, "toad", "1990-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2000-01-01")
}

func TestCLI_Months(t *testing.T) {
	out, err := runCLI(t, "months")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 13, "Header plus twelve months")
	assert.Contains(t, lines[1], "Baisakh")
	assert.Contains(t, lines[1], "January")
	assert.Contains(t, lines[12], "Chaitra")
}

func TestCLI_Month(t *testing.T) {
	out, err := runCLI(t, "month", "2081-09")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Poush 2081\n"))
	assert.Contains(t, out, "2025-01-01")

	_, err = runCLI(t, "month", "2081-13")
	assert.Error(t, err)

	_, err = runCLI(t, "month", "Poush")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrArgMonth)
}

func TestCLI_IPOs_FromFile(t *testing.T) {
	data := `{"success":true,"data":[
	  {"_id":"1","company":"Acme Hydro","type":"IPO","units":"1,00,000","price":"Rs. 100",
	   "openingDate":"2024-12-30T00:00:00Z","closingDate":"2025-01-02T00:00:00Z","status":"Closed"},
	  {"_id":"2","company":"Beta Bank","type":"FPO","units":"50,000","price":"Rs. 250",
	   "openingDate":"2024-11-01T00:00:00Z","closingDate":"2024-11-05T00:00:00Z","status":"Closed"}
	]}`
	path := filepath.Join(t.TempDir(), "ipos.json")
	require.NoError(t, os.WriteFile(path, []byte(data), config.FilePermUserRW))

	out, err := runCLI(t, "ipos", "--"+config.FlagFile, path)
	require.NoError(t, err)

	assert.Contains(t, out, "== Closed (2) ==")
	assert.Less(t, strings.Index(out, "Beta Bank"), strings.Index(out, "Acme Hydro"), "Sorted by opening date")
	assert.Contains(t, out, "Poush 2081")
}

func TestCLI_IPOs_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipos.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), config.FilePermUserRW))

	out, err := runCLI(t, "ipos", "--"+config.FlagFile, path)
	require.NoError(t, err)
	assert.Equal(t, "No IPOs\n", out)
}

func TestCLI_Version(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, config.CommandName+" version "+config.Version))
}

func TestCLI_InvalidSettings(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server_port: 99999\n"), config.FilePermUserRW))

	a := &cliApp{}
	defer a.close()
	root := newRootCommand(a)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "months"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSettingsInvalid)
}

// newBackend serves the two admin endpoints the CLI reads.
func newBackend(t *testing.T, settings string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteBackendIPOs, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[
		  {"_id":"1","company":"Acme Hydro","type":"IPO","units":"1,00,000","price":"Rs. 100",
		   "openingDate":"2024-12-30T00:00:00Z","closingDate":"2025-01-02T00:00:00Z","status":"Closed"}
		]}`))
	})
	mux.HandleFunc(config.RouteBackendTypes, func(w http.ResponseWriter, r *http.Request) {
		if settings == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":["IPO","FPO","Green Bond"]}`))
	})
	mux.HandleFunc(config.RouteBackendSettings, func(w http.ResponseWriter, r *http.Request) {
		if settings == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(settings))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func backendSettings(url string) string {
	return "language: en\nbackend_api_url: " + url + "\n" +
		"notifications:\n  morning_time: \"10:00\"\n  evening_time: \"19:00\"\n"
}

func TestCLI_IPOs_WebFooter(t *testing.T) {
	backend := newBackend(t, `{"success":true,"data":{"lastSyncAt":null,"morningTime":"10:00","eveningTime":"19:00"}}`)

	out, err := runCLIWith(t, backendSettings(backend.URL), "ipos")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Hydro")
	assert.True(t, strings.HasSuffix(out, "Backend has never synced\n"))
}

func TestCLI_IPOs_WebFooterMissing(t *testing.T) {
	backend := newBackend(t, "")

	out, err := runCLIWith(t, backendSettings(backend.URL), "ipos")
	require.NoError(t, err, "A missing settings endpoint only drops the footer")
	assert.Contains(t, out, "Acme Hydro")
	assert.NotContains(t, out, "Last sync")
}

func TestCLI_Schedule(t *testing.T) {
	backend := newBackend(t, `{"success":true,"data":{"lastSyncAt":"2025-01-01T04:15:00Z","morningTime":"09:30","eveningTime":""}}`)

	out, err := runCLIWith(t, backendSettings(backend.URL), "schedule")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"Local", "10:00", "19:00"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"Backend", "09:30", config.MarkNone}, strings.Fields(lines[2]))
	assert.True(t, strings.HasPrefix(lines[3], "Last sync: "))
}

func TestCLI_Schedule_BackendDown(t *testing.T) {
	backend := newBackend(t, "")

	_, err := runCLIWith(t, backendSettings(backend.URL), "schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrRemoteSettings)
}

func TestCLI_IPOs_Types(t *testing.T) {
	backend := newBackend(t, `{"success":true,"data":{}}`)

	out, err := runCLIWith(t, backendSettings(backend.URL), "ipos", "--"+config.FlagTypes)
	require.NoError(t, err)
	assert.Equal(t, "IPO\nFPO\nGreen Bond\n", out)
}

func TestCLI_IPOs_TypesFallback(t *testing.T) {
	backend := newBackend(t, "")

	out, err := runCLIWith(t, backendSettings(backend.URL), "ipos", "--"+config.FlagTypes)
	require.NoError(t, err, "An unreachable types endpoint falls back to the built-in list")
	assert.Equal(t, strings.Join(config.DefaultIPOTypes, "\n")+"\n", out)
}
