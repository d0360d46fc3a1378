package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streamfinder/internal/api"
	"streamfinder/internal/testsupport"
)

type cliTestEnv struct {
	catalogs   *testsupport.Catalogs
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	catalogs := testsupport.NewCatalogs(t)
	catalogs.DrunkenMaster()
	cfg := testsupport.NewConfig(t, testsupport.WithCatalogs(catalogs))
	return &cliTestEnv{
		catalogs:   catalogs,
		configPath: testsupport.WriteConfigFile(t, cfg),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestResolveCommandPlainOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, stderr, err := runCLI(t, []string{"resolve", "movie", "101"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two episode lines, got %q", out)
	}
	if lines[0] != "phimapi\tVietsub #1\tFull\thttps://a.example/101.m3u8" {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if lines[1] != "ophim\tHà Nội (Vietsub)\tFull\thttps://b.example/x.m3u8" {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	requireContains(t, stderr, "streams resolved")
}

func TestResolveCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"resolve", "movie", "101", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve --json: %v", err)
	}
	var payload struct {
		Canonical struct {
			OriginalTitle string `json:"original_title"`
		} `json:"canonical"`
		PhimAPI []map[string]any `json:"phimapi"`
		Ophim   []map[string]any `json:"ophim"`
		All     []map[string]any `json:"all"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if payload.Canonical.OriginalTitle != "Drunken Master" {
		t.Fatalf("unexpected canonical %+v", payload.Canonical)
	}
	if len(payload.PhimAPI) != 1 || len(payload.Ophim) != 1 || len(payload.All) != 2 {
		t.Fatalf("unexpected counts in %s", out)
	}
	if payload.All[0]["source"] != "phimapi" || payload.All[1]["source"] != "ophim" {
		t.Fatalf("expected source A before source B, got %v", payload.All)
	}
}

func TestResolveCommandTitleOverride(t *testing.T) {
	env := setupCLITestEnv(t)

	// Series 7 is unknown to TMDB and PhimAPI; the supplied title still finds
	// nothing but must reach the search catalog.
	out, stderr, err := runCLI(t, []string{"resolve", "series", "7", "--original-title", "Unknown Show"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.TrimSpace(out) != "" {
		t.Fatalf("expected no episodes, got %q", out)
	}
	requireContains(t, stderr, "warning: canonical lookup failed")
	keywords := env.catalogs.Keywords()
	if len(keywords) != 1 || keywords[0] != "Unknown Show" {
		t.Fatalf("unexpected keywords %v", keywords)
	}
}

func TestResolveCommandRejectsBadArgs(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"resolve", "person", "1"}, env.configPath); err == nil {
		t.Fatal("expected error for unsupported media type")
	}
	if _, _, err := runCLI(t, []string{"resolve", "movie"}, env.configPath); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestSearchCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"search", "Drunken", "Master"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if strings.TrimSpace(out) != "x\tTúy Quyền\tDrunken Master\t1978\t101" {
		t.Fatalf("unexpected search output %q", out)
	}

	out, _, err = runCLI(t, []string{"search", "Drunken Master", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("search --json: %v", err)
	}
	var resp api.SearchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Keyword != "Drunken Master" || len(resp.Candidates) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSearchCommandTMDB(t *testing.T) {
	env := setupCLITestEnv(t)
	env.catalogs.SetTMDBSearch(`{"page":1,"results":[
		{"id":101,"media_type":"movie","title":"Túy Quyền","original_title":"Drunken Master","release_date":"1978-10-05"},
		{"id":9,"media_type":"person","name":"Jackie Chan"}
	]}`)

	out, _, err := runCLI(t, []string{"search", "--tmdb", "Drunken Master"}, env.configPath)
	if err != nil {
		t.Fatalf("search --tmdb: %v", err)
	}
	if strings.TrimSpace(out) != "101\tmovie\tTúy Quyền\tDrunken Master\t1978-10-05" {
		t.Fatalf("unexpected tmdb output %q", out)
	}
}

func TestHistoryCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No resolutions recorded")

	if _, _, err := runCLI(t, []string{"resolve", "movie", "101"}, env.configPath); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	fields := strings.Split(strings.TrimSpace(out), "\t")
	if len(fields) != 8 || fields[2] != "101" || fields[6] != "both" || fields[7] != "cli" {
		t.Fatalf("unexpected history row %q", out)
	}

	out, _, err = runCLI(t, []string{"history", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Removed 1 history entries")

	if _, _, err := runCLI(t, []string{"history", "--limit", "0"}, env.configPath); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Config path: "+env.configPath)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Missing stream policy: drop")
}

func TestRenderTable(t *testing.T) {
	rendered := renderTable(tableSpec{
		Title:     "Drunken Master (1978)",
		Headers:   []string{"#", "Stream"},
		Aligns:    []columnAlignment{alignRight},
		MaxWidths: []int{0, 10},
	}, [][]string{{"1", "https://a.example/very/long/path.m3u8"}, {"2"}})

	requireContains(t, rendered, "Drunken Master (1978)")
	requireContains(t, rendered, "STREAM")
	if strings.Contains(rendered, "path.m3u8") {
		t.Fatalf("expected long stream trimmed, got:\n%s", rendered)
	}
	if renderTable(tableSpec{}, nil) != "" {
		t.Fatal("expected empty render without headers")
	}
}
