package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/item-dedupe/internal/model"
)

// readSheet returns the sheet's cell text with trailing empty cells trimmed.
func readSheet(t *testing.T, f *xlsx.File, name string) [][]string {
	t.Helper()
	sheet, ok := f.Sheet[name]
	require.True(t, ok, "sheet %q missing", name)

	var rows [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.String()
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		rows = append(rows, cells)
	}
	return rows
}

// nonBlank drops rows whose cells are all empty.
func nonBlank(rows [][]string) [][]string {
	var out [][]string
	for _, r := range rows {
		for _, c := range r {
			if c != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func score(f float64) *float64 { return &f }

func sampleResult() (model.DuplicateResult, []model.Item) {
	items := []model.Item{
		model.NewItem("Apple", 10, "kg"),
		model.NewItem("apple", 10, "kg"),
		model.NewItem("Banana", 5.5, "pcs"),
		model.NewItem("banana", 5.5, "pcs"),
		{Name: strPtr("Mystery")},
	}
	result := model.DuplicateResult{
		Duplicates: []model.DuplicateGroup{
			{Group: 7, Items: []model.Item{items[0], items[1]}, ConfidenceScore: score(0.95), Reason: "case difference"},
			{Items: []model.Item{{Name: strPtr("Banana")}, {Name: strPtr("Unknown")}}},
		},
	}
	return result, items
}

func strPtr(s string) *string { return &s }

func TestBuilderWrite(t *testing.T) {
	result, items := sampleResult()
	path := filepath.Join(t.TempDir(), "nested", "report.xlsx")
	generated := time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)

	b := &Builder{Location: time.UTC}
	require.NoError(t, b.Write(path, "60012345", result, items, generated))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 3)
	assert.Equal(t, SheetSummary, f.Sheets[0].Name)
	assert.Equal(t, SheetDuplicates, f.Sheets[1].Name)
	assert.Equal(t, SheetAllItems, f.Sheets[2].Name)

	summary := nonBlank(readSheet(t, f, SheetSummary))
	assert.Equal(t, [][]string{
		{"Duplicate Detection Summary"},
		{"Organization ID", "60012345"},
		{"Total Items Analyzed", "5"},
		{"Duplicate Groups Found", "2"},
		{"Total Duplicate Items", "4"},
		{"Generated on", "6/1/2025, 3:04:05 PM"},
	}, summary)

	dups := readSheet(t, f, SheetDuplicates)
	assert.Equal(t, []string{"Group ID", "Item Name", "Rate", "Unit", "Confidence Score", "Reason"}, dups[0])
	assert.Equal(t, [][]string{
		{"Group 1", "Apple", "10", "kg", "0.95", "case difference"},
		{"Group 1", "apple", "10", "kg", "0.95", "case difference"},
		{"Group 2", "Banana", "5.5", "pcs"},
		{"Group 2", "Unknown", "0"},
	}, nonBlank(dups)[1:])

	all := readSheet(t, f, SheetAllItems)
	assert.Equal(t, [][]string{
		{"Item Name", "Rate", "Unit"},
		{"Apple", "10", "kg"},
		{"apple", "10", "kg"},
		{"Banana", "5.5", "pcs"},
		{"banana", "5.5", "pcs"},
		{"Mystery", "0"},
	}, all)
}

func TestBuilderWrite_SeparatorBetweenGroupsOnly(t *testing.T) {
	result, items := sampleResult()
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewBuilder().Write(path, "1", result, items, time.Now()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	dups := readSheet(t, f, SheetDuplicates)

	// header, 2 rows, separator, 2 rows
	assert.Equal(t, 6, len(dups))
	assert.Empty(t, nonBlank(dups[3:4]))
	assert.Equal(t, "Group 2", dups[len(dups)-1][0])
}

func TestBuilderWrite_NoDuplicates(t *testing.T) {
	items := []model.Item{model.NewItem("Apple", 1, "kg")}
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewBuilder().Write(path, "1", model.DuplicateResult{}, items, time.Now()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, readSheet(t, f, SheetDuplicates), 1)
	assert.Len(t, readSheet(t, f, SheetAllItems), 2)
}
