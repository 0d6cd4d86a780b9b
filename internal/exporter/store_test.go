package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rankcli/internal/roster"
)

func rankedTable(t *testing.T) *roster.Table {
	t.Helper()
	table, err := roster.New(
		[]string{"Index", "CS2023_Grade", "SGPA", "Rank"},
		[]map[string]string{
			{"Index": "200145A", "CS2023_Grade": "A", "SGPA": "4.000", "Rank": "1"},
			{"Index": "200146B", "SGPA": "0.000", "Rank": "2"},
		})
	require.NoError(t, err)
	return table
}

func TestSaveCSV(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir, time.Hour, nil)

	filename, err := st.Save(rankedTable(t), "csv")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^rankings_\d{8}_\d{6}_[0-9a-f]{16}\.csv$`), filename)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)

	body := strings.TrimPrefix(string(data), "\ufeff")
	require.NotEqual(t, string(data), body, "csv export should start with a BOM")

	rows, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Index", "CS2023_Grade", "SGPA", "Rank"}, rows[0])
	assert.Equal(t, []string{"200145A", "A", "4.000", "1"}, rows[1])
	assert.Equal(t, []string{"200146B", "N/A", "0.000", "2"}, rows[2])
}

func TestSaveExcel(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir, time.Hour, nil)

	filename, err := st.Save(rankedTable(t), "xlsx")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, err := excelize.OpenFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Rankings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Index", "CS2023_Grade", "SGPA", "Rank"}, rows[0])
	assert.Equal(t, []string{"200146B", "N/A", "0.000", "2"}, rows[2])
}

func TestSaveRejectsUnknownFormat(t *testing.T) {
	st := NewStore(t.TempDir(), time.Hour, nil)
	_, err := st.Save(rankedTable(t), "pdf")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir, time.Hour, nil)

	filename, err := st.Save(rankedTable(t), "csv")
	require.NoError(t, err)

	path, err := st.Resolve(filename)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(path), filename)

	_, err = st.Resolve("rankings_20260101_000000_0123456789abcdef.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir, time.Hour, nil)

	secret := filepath.Join(filepath.Dir(dir), "secret.csv")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0o600))

	// path components are stripped, so this resolves inside dir and is absent
	_, err := st.Resolve("../secret.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.Resolve("export.txt")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolveRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir, time.Hour, nil)

	target := filepath.Join(dir, "real.csv")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))
	link := filepath.Join(dir, "link.csv")
	require.NoError(t, os.Symlink(target, link))

	_, err := st.Resolve("link.csv")
	assert.Error(t, err)
}

func TestCleanupOld(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir, time.Hour, nil)

	stale := filepath.Join(dir, "rankings_old.csv")
	fresh := filepath.Join(dir, "rankings_new.csv")
	other := filepath.Join(dir, "keep.txt")
	for _, p := range []string{stale, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(other, old, old))

	st.CleanupOld()

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	// files outside the export extension whitelist are never touched
	assert.FileExists(t, other)
}
