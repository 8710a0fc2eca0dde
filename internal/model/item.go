// Package model holds the records shared by the fetch, analysis and report stages.
package model

// Item is the minimal projection of an upstream inventory record. Fields the
// upstream record lacks stay nil and serialize as JSON null.
type Item struct {
	Name *string  `json:"item_name"`
	Rate *float64 `json:"rate"`
	Unit *string  `json:"unit"`
}

// NewItem builds a fully populated Item.
func NewItem(name string, rate float64, unit string) Item {
	return Item{Name: &name, Rate: &rate, Unit: &unit}
}

// NameOrEmpty returns the item name or "" when absent.
func (i Item) NameOrEmpty() string {
	if i.Name == nil {
		return ""
	}
	return *i.Name
}

// UnitOrEmpty returns the unit or "" when absent.
func (i Item) UnitOrEmpty() string {
	if i.Unit == nil {
		return ""
	}
	return *i.Unit
}

// RateOrZero returns the rate or 0 when absent.
func (i Item) RateOrZero() float64 {
	if i.Rate == nil {
		return 0
	}
	return *i.Rate
}

// DuplicateGroup is a set of items the analyzer judged equivalent.
type DuplicateGroup struct {
	Group           int      `json:"group,omitempty"`
	Items           []Item   `json:"items"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	Reason          string   `json:"reason,omitempty"`
}

// DuplicateSummary mirrors the summary block the analyzer returns.
type DuplicateSummary struct {
	TotalItems      int `json:"total_items"`
	DuplicateGroups int `json:"duplicate_groups"`
}

// DuplicateResult is the merged analyzer output for a run.
type DuplicateResult struct {
	Duplicates []DuplicateGroup `json:"duplicates"`
	Summary    DuplicateSummary `json:"summary"`
}

// DuplicateItemCount returns the number of items across all groups.
func (r DuplicateResult) DuplicateItemCount() int {
	n := 0
	for _, g := range r.Duplicates {
		n += len(g.Items)
	}
	return n
}
