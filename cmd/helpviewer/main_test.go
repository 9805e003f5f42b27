package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/internal/toc"
	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
)

func writeArchive(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"contents.hhc": `<ul><li><object type="text/sitemap"><param name="Name" value="Welcome"><param name="Local" value="welcome.htm"></object>
<ul><li><object type="text/sitemap"><param name="Name" value="Printing"><param name="Local" value="print.htm"></object></ul></ul>`,
		"welcome.htm": "<html><title>Welcome</title><body>Start with printing basics</body></html>",
		"print.htm":   "<html><title>Printing</title><body>Send pages to the printer</body></html>",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

// run executes the root command and resets flags it may have set.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		archiveDir, configPath = "", ""
		tocJSON, searchJSON, searchInteractive, searchLimit = false, false, false, 10
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTOCCmd(t *testing.T) {
	out, err := run(t, "", "toc", "--archive", writeArchive(t))
	require.NoError(t, err)
	assert.Equal(t, "Welcome  /welcome.htm\n  Printing  /print.htm\n", out)
}

func TestTOCCmd_JSON(t *testing.T) {
	out, err := run(t, "", "toc", "--json", "-a", writeArchive(t))
	require.NoError(t, err)
	var forest []toc.TopicNode
	require.NoError(t, json.Unmarshal([]byte(out), &forest))
	require.Len(t, forest, 1)
	assert.Equal(t, "Printing", forest[0].Children[0].Title)
}

func TestSearchCmd(t *testing.T) {
	out, err := run(t, "", "search", "print", "--json", "-a", writeArchive(t))
	require.NoError(t, err)
	var res executor.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Built)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "Printing", res.Results[0].Title)
	assert.Equal(t, "Welcome", res.Results[1].Title)
}

func TestSearchCmd_Text(t *testing.T) {
	out, err := run(t, "", "search", "printer", "-a", writeArchive(t))
	require.NoError(t, err)
	assert.Contains(t, out, `1 result(s) for "printer":`)
	assert.Contains(t, out, "[1] Printing  /print.htm")

	out, err = run(t, "", "search", "zebra", "-a", writeArchive(t))
	require.NoError(t, err)
	assert.Contains(t, out, `No results for "zebra".`)
}

func TestSearchCmd_Interactive(t *testing.T) {
	out, err := run(t, "welcome\n", "search", "-i", "--json", "-a", writeArchive(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	var res executor.QueryResult
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &res))
	assert.Equal(t, "welcome", res.Query)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	_, err := run(t, "", "search", "-a", writeArchive(t))
	assert.Error(t, err)
}

func TestOpenArchive_NotConfigured(t *testing.T) {
	t.Setenv("HV_ARCHIVE_ROOT", "")
	_, err := run(t, "", "toc")
	assert.ErrorIs(t, err, apperrors.ErrArchiveNotLoaded)
}

func TestAnalyticsCmd_RequiresKafka(t *testing.T) {
	t.Setenv("HV_KAFKA_ENABLED", "false")
	_, err := run(t, "", "analytics")
	assert.ErrorIs(t, err, apperrors.ErrAnalyticsDisabled)
}
