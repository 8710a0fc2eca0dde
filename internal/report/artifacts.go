package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/item-dedupe/internal/model"
)

var (
	// ErrNotFound is returned when a requested artifact does not exist.
	ErrNotFound = errors.New("report: file not found")
	// ErrInvalidName is returned for names that could escape the results dir.
	ErrInvalidName = errors.New("report: invalid file name")
)

// Artifacts manages the files a run leaves in the results directory.
type Artifacts struct {
	dir string
}

// NewArtifacts returns an Artifacts rooted at dir.
func NewArtifacts(dir string) *Artifacts {
	return &Artifacts{dir: dir}
}

// Dir returns the results directory.
func (a *Artifacts) Dir() string { return a.dir }

// Path returns the full path for name. It does not validate name.
func (a *Artifacts) Path(name string) string {
	return filepath.Join(a.dir, name)
}

// ReportName returns the workbook file name for orgID at now.
func ReportName(orgID string, now time.Time) string {
	return fmt.Sprintf("duplicate_results_%s_%s_%d.xlsx", orgID, now.UTC().Format("2006-01-02"), now.UnixMilli())
}

// CompanionName returns the raw JSON file name paired with a report.
func CompanionName(report string) string {
	return strings.TrimSuffix(report, filepath.Ext(report)) + ".json"
}

// WriteResult stores the merged duplicate result next to the report.
func (a *Artifacts) WriteResult(reportName string, result model.DuplicateResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "report: marshal result")
	}
	name := CompanionName(reportName)
	if err := a.write(name, data); err != nil {
		return "", err
	}
	return name, nil
}

// WriteErrorText stores an unparseable model reply for later inspection.
func (a *Artifacts) WriteErrorText(now time.Time, raw string) (string, error) {
	name := fmt.Sprintf("error_response_%d.txt", now.UnixMilli())
	if err := a.write(name, []byte(raw)); err != nil {
		return "", err
	}
	return name, nil
}

func (a *Artifacts) write(name string, data []byte) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return eris.Wrap(err, "report: create results dir")
	}
	if err := os.WriteFile(a.Path(name), data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", name)
	}
	return nil
}

// Open opens a report for download.
func (a *Artifacts) Open(name string) (*os.File, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(a.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", name)
	}
	return f, nil
}

// Remove deletes a report and its companion JSON. A missing companion is
// not an error.
func (a *Artifacts) Remove(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(a.Path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return eris.Wrapf(err, "report: remove %s", name)
	}
	if err := os.Remove(a.Path(CompanionName(name))); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(err, "report: remove companion of %s", name)
	}
	return nil
}

func validateName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}
