package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/item-dedupe/internal/model"
)

func TestReportName(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	name := ReportName("60012345", now)
	assert.Equal(t, "duplicate_results_60012345_2025-06-01_1748820600000.xlsx", name)
	assert.Equal(t, "duplicate_results_60012345_2025-06-01_1748820600000.json", CompanionName(name))
}

func TestWriteResultAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	a := NewArtifacts(dir)

	report := "duplicate_results_1_2025-06-01_1.xlsx"
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(a.Path(report), []byte("xlsx"), 0o644))

	result := model.DuplicateResult{
		Duplicates: []model.DuplicateGroup{{Items: []model.Item{model.NewItem("a", 1, "kg")}}},
		Summary:    model.DuplicateSummary{TotalItems: 3, DuplicateGroups: 1},
	}
	name, err := a.WriteResult(report, result)
	require.NoError(t, err)
	assert.Equal(t, "duplicate_results_1_2025-06-01_1.json", name)

	data, err := os.ReadFile(a.Path(name))
	require.NoError(t, err)
	var got model.DuplicateResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, result, got)

	require.NoError(t, a.Remove(report))
	assert.NoFileExists(t, a.Path(report))
	assert.NoFileExists(t, a.Path(name))

	assert.ErrorIs(t, a.Remove(report), ErrNotFound)
}

func TestRemove_MissingCompanionIgnored(t *testing.T) {
	a := NewArtifacts(t.TempDir())
	require.NoError(t, os.WriteFile(a.Path("r.xlsx"), []byte("x"), 0o644))
	assert.NoError(t, a.Remove("r.xlsx"))
}

func TestWriteErrorText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	a := NewArtifacts(dir)

	name, err := a.WriteErrorText(time.UnixMilli(1748820600000), "not json at all")
	require.NoError(t, err)
	assert.Equal(t, "error_response_1748820600000.txt", name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "not json at all", string(data))
}

func TestOpen(t *testing.T) {
	a := NewArtifacts(t.TempDir())
	require.NoError(t, os.WriteFile(a.Path("r.xlsx"), []byte("content"), 0o644))

	f, err := a.Open("r.xlsx")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "content", string(data))

	_, err = a.Open("missing.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_InvalidNames(t *testing.T) {
	a := NewArtifacts(t.TempDir())
	for _, name := range []string{"", ".", "..", "../secret", "a/b.xlsx", `a\b.xlsx`, "x..xlsx"} {
		_, err := a.Open(name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
		assert.ErrorIs(t, a.Remove(name), ErrInvalidName, "name %q", name)
	}
}
