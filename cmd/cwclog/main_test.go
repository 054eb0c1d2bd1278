package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLog = `<LOG TIME="2:15 PM" DATE="6/1/18">
<S T="10:00:01" R="BA"> (tell :content (spoken :what "Hello, what would you like to model?")) </S>
<R T="10:00:05" S="BA"> (tell :sender TEXTTAGGER :content (utterance :text "what does
  MEK phosphorylate?")) </R>
<S T="10:00:06" R="QCA"> (ask-if :content (x)) </S>
<S T="10:00:07" R="BA"> (tell :content (spoken</S>
`

func writeLogsRoot(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "clic-bob_silly_name_1a2b")
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "log.txt"), []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return root, dir
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("CWCLOG_LOG_LEVEL", "error")
	t.Cleanup(func() { logsDir, logLevel = "", "" })

	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("cwclog %s failed: %v", strings.Join(args, " "), err)
	}
	return buf.String()
}

func TestClipSummary(t *testing.T) {
	if got := clipSummary("abcdef", 3); got != "ab…" {
		t.Fatalf("clipSummary unexpected result: %q", got)
	}
	if got := clipSummary("short", 10); got != "short" {
		t.Fatalf("clipSummary should not alter short text: %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	text := "  line one\n\nline\t two  "
	if got := collapseWhitespace(text); got != "line one line two" {
		t.Fatalf("collapseWhitespace failed: %q", got)
	}
}

func TestParseTimeFlag(t *testing.T) {
	if got, err := parseTimeFlag("--after", ""); err != nil || got != nil {
		t.Fatalf("empty value should be nil, got %v %v", got, err)
	}
	got, err := parseTimeFlag("--after", "2:15 PM 6/1/18")
	if err != nil || got.Hour() != 14 || got.Year() != 2018 {
		t.Fatalf("unexpected start layout parse: %v %v", got, err)
	}
	if _, err := parseTimeFlag("--after", "2018-06-01T00:00:00Z"); err != nil {
		t.Fatalf("RFC3339 should parse: %v", err)
	}
	if _, err := parseTimeFlag("--after", "yesterday"); err == nil {
		t.Fatalf("expected error for invalid time")
	}
}

func TestViewCommandByName(t *testing.T) {
	root, _ := writeLogsRoot(t)
	out := execute(t, "--logs-dir", root, "view", "clic-bob_silly_name_1a2b", "--format", "text", "--no-color")

	if !strings.Contains(out, "Hello, what would you like to model?") {
		t.Fatalf("view output missing system utterance:\n%s", out)
	}
	if !strings.Contains(out, "[#002] User") {
		t.Fatalf("view output missing user entry:\n%s", out)
	}
}

func TestViewCommandFormatRaw(t *testing.T) {
	_, dir := writeLogsRoot(t)
	out := execute(t, "view", dir, "--format", "raw")
	if strings.Count(out, "<S T=") != 3 {
		t.Fatalf("raw output should include every S record:\n%s", out)
	}
}

func TestInfoCommandJSON(t *testing.T) {
	root, _ := writeLogsRoot(t)
	out := execute(t, "--logs-dir", root, "info", "clic-bob_silly_name_1a2b", "--format", "json")

	var payload infoPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode info: %v\n%s", err, out)
	}
	if payload.RecordCount != 4 || payload.EntryCount != 2 || payload.Unparsable != 1 || payload.Unclassified != 1 {
		t.Fatalf("unexpected counts: %+v", payload)
	}
	if payload.Info.ContainerName != "silly_name" || payload.StartTime != "2:15 PM 6/1/18" {
		t.Fatalf("unexpected metadata: %+v", payload)
	}
	if payload.FirstQuestion != "what does\n  MEK phosphorylate?" {
		t.Fatalf("unexpected first question: %q", payload.FirstQuestion)
	}
}

func TestInfoCommandText(t *testing.T) {
	root, _ := writeLogsRoot(t)
	out := execute(t, "--logs-dir", root, "info", "clic-bob_silly_name_1a2b", "--entries")

	if !strings.Contains(out, "First Question: what does MEK phosphorylate?") {
		t.Fatalf("info text should collapse whitespace:\n%s", out)
	}
	if !strings.Contains(out, "1 unparsable, 1 unclassified") {
		t.Fatalf("info text missing skip counts:\n%s", out)
	}
}

func TestListCommand(t *testing.T) {
	root, _ := writeLogsRoot(t)
	out := execute(t, "--logs-dir", root, "list", "--format", "jsonl")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "clic-bob_silly_name_1a2b") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	out = execute(t, "--logs-dir", root, "list", "--format", "jsonl", "--interface", "SBGN")
	if strings.TrimSpace(out) != "" {
		t.Fatalf("interface filter should exclude CLIC logs:\n%s", out)
	}
}

func TestExportAndIndexCommands(t *testing.T) {
	root, dir := writeLogsRoot(t)

	out := execute(t, "--logs-dir", root, "export", "clic-bob_silly_name_1a2b")
	if strings.TrimSpace(out) != filepath.Join(dir, "transcript.html") {
		t.Fatalf("unexpected export output: %q", out)
	}

	out = execute(t, "index", root, "--jobs", "2")
	if strings.TrimSpace(out) != filepath.Join(dir, "transcript.html") {
		t.Fatalf("unexpected index output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "index.html")); err != nil {
		t.Fatalf("index.html not written: %v", err)
	}
}
