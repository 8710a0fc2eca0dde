// Package report renders duplicate results into an xlsx workbook and manages
// the per-run files in the results directory.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/item-dedupe/internal/model"
)

// Sheet names in the order they appear in the workbook.
const (
	SheetSummary    = "Summary"
	SheetDuplicates = "Duplicates"
	SheetAllItems   = "All Items"
)

// Builder writes duplicate reports.
type Builder struct {
	// Location is used to render the "Generated on" timestamp.
	Location *time.Location
}

// NewBuilder returns a Builder that renders times in local time.
func NewBuilder() *Builder {
	return &Builder{Location: time.Local}
}

type itemDetails struct {
	rate float64
	unit string
}

// Write renders result and the full item list for orgID into a workbook at
// path, creating parent directories as needed.
func (b *Builder) Write(path, orgID string, result model.DuplicateResult, items []model.Item, generatedAt time.Time) error {
	f := xlsx.NewFile()

	if err := b.writeSummary(f, orgID, result, items, generatedAt); err != nil {
		return err
	}
	if err := writeDuplicates(f, result, items); err != nil {
		return err
	}
	if err := writeAllItems(f, items); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create results dir")
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func (b *Builder) writeSummary(f *xlsx.File, orgID string, result model.DuplicateResult, items []model.Item, generatedAt time.Time) error {
	sheet, err := f.AddSheet(SheetSummary)
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	loc := b.Location
	if loc == nil {
		loc = time.Local
	}

	addStrings(sheet, "Duplicate Detection Summary")
	addStrings(sheet, "")
	addStrings(sheet, "Organization ID", orgID)
	addLabelInt(sheet, "Total Items Analyzed", len(items))
	addLabelInt(sheet, "Duplicate Groups Found", len(result.Duplicates))
	addLabelInt(sheet, "Total Duplicate Items", result.DuplicateItemCount())
	addStrings(sheet, "")
	addStrings(sheet, "Generated on", generatedAt.In(loc).Format("1/2/2006, 3:04:05 PM"))
	return nil
}

func writeDuplicates(f *xlsx.File, result model.DuplicateResult, items []model.Item) error {
	sheet, err := f.AddSheet(SheetDuplicates)
	if err != nil {
		return eris.Wrap(err, "report: add duplicates sheet")
	}

	// Later items with the same name win.
	details := make(map[string]itemDetails, len(items))
	for _, it := range items {
		if name := it.NameOrEmpty(); name != "" {
			details[name] = itemDetails{rate: it.RateOrZero(), unit: it.UnitOrEmpty()}
		}
	}

	addStrings(sheet, "Group ID", "Item Name", "Rate", "Unit", "Confidence Score", "Reason")
	for gi, group := range result.Duplicates {
		for _, it := range group.Items {
			name := it.NameOrEmpty()
			d := details[name]

			row := sheet.AddRow()
			row.AddCell().SetString(fmt.Sprintf("Group %d", gi+1))
			row.AddCell().SetString(name)
			row.AddCell().SetFloat(d.rate)
			row.AddCell().SetString(d.unit)
			if group.ConfidenceScore != nil && *group.ConfidenceScore != 0 {
				row.AddCell().SetFloat(*group.ConfidenceScore)
			} else {
				row.AddCell().SetString("")
			}
			row.AddCell().SetString(group.Reason)
		}
		if gi < len(result.Duplicates)-1 {
			addStrings(sheet, "", "", "", "", "", "")
		}
	}
	return nil
}

func writeAllItems(f *xlsx.File, items []model.Item) error {
	sheet, err := f.AddSheet(SheetAllItems)
	if err != nil {
		return eris.Wrap(err, "report: add items sheet")
	}

	addStrings(sheet, "Item Name", "Rate", "Unit")
	for _, it := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(it.NameOrEmpty())
		row.AddCell().SetFloat(it.RateOrZero())
		row.AddCell().SetString(it.UnitOrEmpty())
	}
	return nil
}

func addStrings(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addLabelInt(sheet *xlsx.Sheet, label string, n int) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetInt(n)
}
