package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwclog/internal/config"
)

const body = `<S T="10:00:01" R="BA"> (tell :content (spoken :what "Hello from Bob")) </S>
<R T="10:00:05" S="BA"> (tell :sender TEXTTAGGER :content (utterance :text "what does MEK do?")) </R>
<S T="10:00:07" R="BA"> (broadcast :content (tell :content (start-conversation))) </S>
`

func writeLog(t *testing.T, root, name, start string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	fields := strings.SplitN(start, " ", 3)
	text := `<LOG TIME="` + fields[0] + " " + fields[1] + `" DATE="` + fields[2] + "\">\n" + body
	require.NoError(t, os.WriteFile(filepath.Join(dir, "log.txt"), []byte(text), 0o644))
	return dir
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.PDFCmd = "cp"
	return cfg
}

func TestExportHTML(t *testing.T) {
	dir := writeLog(t, t.TempDir(), "clic-bob_silly_name_1a2b", "2:15 PM 6/1/18")

	res, err := Export(context.Background(), testConfig(), dir, Options{UseCache: true})
	require.NoError(t, err)

	assert.Equal(t, FileTypeHTML, res.FileType)
	assert.Equal(t, filepath.Join(dir, CacheFile), res.OutFile)
	assert.False(t, res.Cached)
	assert.Equal(t, "2:15 PM 6/1/18", res.StartTime)

	data, err := os.ReadFile(res.OutFile)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Hello from Bob")
	assert.Contains(t, html, "what does MEK do?")
	assert.Contains(t, html, "silly_name")
	assert.Contains(t, html, "<hr")
}

func TestExportUsesCache(t *testing.T) {
	dir := writeLog(t, t.TempDir(), "clic-bob_silly_name_1a2b", "2:15 PM 6/1/18")
	cache := filepath.Join(dir, CacheFile)
	require.NoError(t, os.WriteFile(cache, []byte("cached"), 0o644))

	res, err := Export(context.Background(), testConfig(), dir, Options{UseCache: true})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	data, _ := os.ReadFile(cache)
	assert.Equal(t, "cached", string(data))

	res, err = Export(context.Background(), testConfig(), dir, Options{UseCache: false})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	data, _ = os.ReadFile(cache)
	assert.Contains(t, string(data), "Hello from Bob")
}

func TestExportCustomOutFile(t *testing.T) {
	dir := writeLog(t, t.TempDir(), "clic-bob_silly_name_1a2b", "2:15 PM 6/1/18")
	out := filepath.Join(t.TempDir(), "copy.html")

	res, err := Export(context.Background(), testConfig(), dir, Options{OutFile: out})
	require.NoError(t, err)
	assert.Equal(t, out, res.OutFile)
	assert.FileExists(t, out)
	assert.FileExists(t, filepath.Join(dir, CacheFile))
}

func TestExportPDFInferredFromSuffix(t *testing.T) {
	dir := writeLog(t, t.TempDir(), "clic-bob_silly_name_1a2b", "2:15 PM 6/1/18")
	out := filepath.Join(t.TempDir(), "transcript.PDF")

	res, err := Export(context.Background(), testConfig(), dir, Options{OutFile: out, FileType: FileTypeHTML})
	require.NoError(t, err)
	assert.Equal(t, FileTypePDF, res.FileType)

	// cp stands in for a real renderer.
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hello from Bob")
}

func TestExportPDFDefaultPath(t *testing.T) {
	dir := writeLog(t, t.TempDir(), "clic-bob_silly_name_1a2b", "2:15 PM 6/1/18")

	res, err := Export(context.Background(), testConfig(), dir, Options{FileType: "PDF"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transcript.pdf"), res.OutFile)
	assert.FileExists(t, res.OutFile)
}

func TestExportPDFCommandFailure(t *testing.T) {
	dir := writeLog(t, t.TempDir(), "clic-bob_silly_name_1a2b", "2:15 PM 6/1/18")
	cfg := testConfig()
	cfg.PDFCmd = "false"

	_, err := Export(context.Background(), cfg, dir, Options{FileType: FileTypePDF})
	require.Error(t, err)
}

func TestExportInvalidFileType(t *testing.T) {
	dir := writeLog(t, t.TempDir(), "clic-bob_silly_name_1a2b", "2:15 PM 6/1/18")

	_, err := Export(context.Background(), testConfig(), dir, Options{FileType: "docx"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFileType))
	assert.NoFileExists(t, filepath.Join(dir, CacheFile))
}

func TestIndex(t *testing.T) {
	root := t.TempDir()
	late := writeLog(t, root, "clic-bob_late_run_aaa", "4:30 PM 6/2/18")
	early := writeLog(t, root, "sbgn-bob_early_run_bbb", "9:05 AM 6/1/18")
	middle := writeLog(t, filepath.Join(root, "nested"), "clic-bob_mid_run_ccc", "11:00 AM 6/1/18")

	res, err := Index(context.Background(), testConfig(), root, 2)
	require.NoError(t, err)

	want := []string{
		filepath.Join(early, CacheFile),
		filepath.Join(middle, CacheFile),
		filepath.Join(late, CacheFile),
	}
	assert.Equal(t, want, res.Transcripts)

	data, err := os.ReadFile(filepath.Join(root, IndexJSON))
	require.NoError(t, err)
	var listed []string
	require.NoError(t, json.Unmarshal(data, &listed))
	assert.Equal(t, want, listed)

	page, err := os.ReadFile(filepath.Join(root, IndexHTML))
	require.NoError(t, err)
	assert.Contains(t, string(page), `href="sbgn-bob_early_run_bbb/transcript.html"`)
	assert.Contains(t, string(page), "nested/clic-bob_mid_run_ccc/transcript.html")

	for _, path := range want {
		assert.FileExists(t, path)
	}
}

func TestIndexEmptyRoot(t *testing.T) {
	root := t.TempDir()
	res, err := Index(context.Background(), testConfig(), root, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Transcripts)

	data, err := os.ReadFile(filepath.Join(root, IndexJSON))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
