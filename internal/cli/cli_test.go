package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupCLIStore points the CLI at a file-backed store in a temp directory so
// versions persist across separate command invocations.
func setupCLIStore(t *testing.T) {
	t.Helper()
	t.Setenv("DOCVAULT_STORE_BACKEND", "file")
	t.Setenv("DOCVAULT_STORE_DIR", t.TempDir())
	t.Setenv("DOCVAULT_LOG_LEVEL", "error")
}

// runCLI executes one command against a fresh root, capturing all output.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestCreateListShowFlow(t *testing.T) {
	setupCLIStore(t)

	out, err := runCLI(t, "alpha\nbeta\n",
		"create", "doc.md", "--author", "alice", "--author-name", "Alice", "-m", "first draft")
	if err != nil {
		t.Fatalf("create failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ Created version 1 of doc.md") {
		t.Errorf("Expected creation confirmation, got:\n%s", out)
	}

	out, err = runCLI(t, "alpha\nbeta two\ngamma\n",
		"create", "doc.md", "--author", "bob")
	if err != nil {
		t.Fatalf("second create failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ Created version 2 of doc.md") {
		t.Errorf("Expected version 2 confirmation, got:\n%s", out)
	}
	if !strings.Contains(out, "changes: +1 -0 ~1") {
		t.Errorf("Expected change summary against version 1, got:\n%s", out)
	}

	out, err = runCLI(t, "", "list", "doc.md")
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "doc.md: 2 version(s)") {
		t.Errorf("Expected two listed versions, got:\n%s", out)
	}
	if strings.Index(out, "v2") > strings.Index(out, "v1") {
		t.Errorf("Expected newest version first, got:\n%s", out)
	}
	if !strings.Contains(out, "first draft") {
		t.Errorf("Expected version comment in listing, got:\n%s", out)
	}

	out, err = runCLI(t, "", "show", "doc.md", "1")
	if err != nil {
		t.Fatalf("show failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"document:  doc.md",
		"version:   1",
		"author:    alice (Alice)",
		"comment:   first draft",
		"alpha",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected show output to contain %q, got:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "", "show", "doc.md", "1", "--raw")
	if err != nil {
		t.Fatalf("show --raw failed: %v\n%s", err, out)
	}
	if out != "alpha\nbeta\n" {
		t.Errorf("Expected raw content, got %q", out)
	}
}

func TestCompareAndRestoreFlow(t *testing.T) {
	setupCLIStore(t)

	if out, err := runCLI(t, "alpha\nbeta\n", "create", "doc.md", "--author", "alice"); err != nil {
		t.Fatalf("create v1 failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, "alpha\nbeta two\ngamma\n", "create", "doc.md", "--author", "alice"); err != nil {
		t.Fatalf("create v2 failed: %v\n%s", err, out)
	}

	out, err := runCLI(t, "", "compare", "doc.md", "1", "2")
	if err != nil {
		t.Fatalf("compare failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "doc.md: version 1 -> version 2") {
		t.Errorf("Expected comparison header, got:\n%s", out)
	}
	if !strings.Contains(out, "+1 added  -0 removed  ~1 modified") {
		t.Errorf("Expected comparison summary, got:\n%s", out)
	}

	out, err = runCLI(t, "", "restore", "doc.md", "1", "--author", "carol")
	if err != nil {
		t.Fatalf("restore failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ Restored doc.md from version 1 as version 3") {
		t.Errorf("Expected restore confirmation, got:\n%s", out)
	}

	out, err = runCLI(t, "", "show", "doc.md", "3", "--raw")
	if err != nil {
		t.Fatalf("show restored failed: %v\n%s", err, out)
	}
	if out != "alpha\nbeta\n" {
		t.Errorf("Expected restored content to match version 1, got %q", out)
	}
}

func TestAuditAndExportFlow(t *testing.T) {
	setupCLIStore(t)

	if out, err := runCLI(t, "alpha\n", "create", "doc.md", "--author", "alice", "-m", "start"); err != nil {
		t.Fatalf("create v1 failed: %v\n%s", err, out)
	}
	if out, err := runCLI(t, "alpha\nbeta\n", "create", "doc.md", "--author", "bob"); err != nil {
		t.Fatalf("create v2 failed: %v\n%s", err, out)
	}

	out, err := runCLI(t, "", "audit", "doc.md")
	if err != nil {
		t.Fatalf("audit failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "doc.md: 2 audit entries") {
		t.Errorf("Expected two audit entries, got:\n%s", out)
	}
	if !strings.Contains(out, "created") || !strings.Contains(out, "modified") {
		t.Errorf("Expected created and modified actions, got:\n%s", out)
	}

	csvPath := filepath.Join(t.TempDir(), "trail.csv")
	out, err = runCLI(t, "", "audit", "doc.md", "--out", csvPath)
	if err != nil {
		t.Fatalf("audit --out csv failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ Wrote audit trail for doc.md") {
		t.Errorf("Expected audit file confirmation, got:\n%s", out)
	}
	csvData, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("Failed to read audit CSV: %v", err)
	}
	if !strings.HasPrefix(string(csvData), "action,timestamp,author_id") {
		t.Errorf("Expected CSV header, got: %q", string(csvData)[:min(len(csvData), 60)])
	}

	jsonPath := filepath.Join(t.TempDir(), "trail.json")
	if out, err := runCLI(t, "", "audit", "doc.md", "--out", jsonPath); err != nil {
		t.Fatalf("audit --out json failed: %v\n%s", err, out)
	}
	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read audit JSON: %v", err)
	}
	var entries []map[string]interface{}
	if err := json.Unmarshal(jsonData, &entries); err != nil {
		t.Fatalf("Audit JSON did not parse: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 audit entries in JSON, got %d", len(entries))
	}

	out, err = runCLI(t, "", "export", "doc.md")
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}
	var export struct {
		DocumentID   string `json:"documentId"`
		VersionCount int    `json:"versionCount"`
	}
	if err := json.Unmarshal([]byte(out), &export); err != nil {
		t.Fatalf("Export output did not parse as JSON: %v\n%s", err, out)
	}
	if export.DocumentID != "doc.md" || export.VersionCount != 2 {
		t.Errorf("Expected export of 2 versions of doc.md, got %+v", export)
	}

	exportPath := filepath.Join(t.TempDir(), "history.json")
	out, err = runCLI(t, "", "export", "doc.md", "-o", exportPath)
	if err != nil {
		t.Fatalf("export -o failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ Exported 2 version(s) of doc.md") {
		t.Errorf("Expected export confirmation, got:\n%s", out)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Errorf("Expected export file to exist: %v", err)
	}
}

func TestJSONOutputFormat(t *testing.T) {
	setupCLIStore(t)

	out, err := runCLI(t, "alpha\n", "--format", "json", "create", "doc.md", "--author", "alice")
	if err != nil {
		t.Fatalf("create failed: %v\n%s", err, out)
	}

	var resp CLIResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("JSON output did not parse: %v\n%s", err, out)
	}
	if resp.Status != "ok" {
		t.Errorf("Expected status ok, got %q", resp.Status)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object payload, got %T", resp.Data)
	}
	if data["versionNumber"] != float64(1) {
		t.Errorf("Expected versionNumber 1, got %v", data["versionNumber"])
	}

	out, err = runCLI(t, "", "--format", "json", "list", "missing-doc")
	if err == nil {
		t.Fatal("Expected an error for unknown document")
	}
	var errResp CLIResponse
	if err := json.Unmarshal([]byte(out), &errResp); err != nil {
		t.Fatalf("JSON error output did not parse: %v\n%s", err, out)
	}
	if errResp.Status != "error" {
		t.Errorf("Expected status error, got %q", errResp.Status)
	}
	if errResp.Error == nil || errResp.Error.Code != ErrCodeNotFound {
		t.Errorf("Expected error code %s, got %+v", ErrCodeNotFound, errResp.Error)
	}
}

func TestCommandErrorReporting(t *testing.T) {
	setupCLIStore(t)

	out, err := runCLI(t, "", "show", "missing-doc", "1")
	if err == nil {
		t.Fatal("Expected an error for unknown document")
	}
	if !IsExitError(err) {
		t.Errorf("Expected a rendered ExitError, got %T", err)
	}
	if got := GetExitCode(err); got != ExitFailure {
		t.Errorf("Expected exit code %d, got %d", ExitFailure, got)
	}
	if !strings.Contains(out, "Error [E002]") {
		t.Errorf("Expected not-found error rendering, got:\n%s", out)
	}

	_, err = runCLI(t, "alpha\n", "create", "doc.md", "--author", "alice", "--meta", "novalue")
	if err == nil {
		t.Fatal("Expected an error for malformed metadata")
	}
	if got := GetExitCode(err); got != ExitCommandError {
		t.Errorf("Expected exit code %d for bad metadata, got %d", ExitCommandError, got)
	}

	_, err = runCLI(t, "alpha\n", "create", "doc.md")
	if err == nil {
		t.Fatal("Expected an error when --author is missing")
	}
	if IsExitError(err) {
		t.Error("Expected a plain cobra error for missing required flag")
	}
}
