package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/domain"
)

// stagingColumns is the column order of staged rows. The Title/Body
// classification is derived downstream, so it is absent here.
const stagingColumns = 8

// Staging owns the hidden per-session directory that jobs append their
// surviving rows into. It is created at session start and deleted by the
// aggregator whatever the session outcome.
type Staging struct {
	dir string
}

// NewStaging creates the staging directory for one session.
func NewStaging(baseDir, sessionID string) (*Staging, error) {
	dir := filepath.Join(baseDir, "."+sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Staging{dir: dir}, nil
}

// Dir returns the staging directory path.
func (s *Staging) Dir() string { return s.dir }

// Append writes rows to the job's staging file. Each job owns exactly one
// file, so concurrent jobs never contend on a writer.
func (s *Staging) Append(jobID string, rows []domain.FilteredRow) error {
	if len(rows) == 0 {
		return nil
	}

	path := filepath.Join(s.dir, jobID+".csv")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open staging file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range rows {
		record := []string{
			row.PageURL,
			row.Date,
			row.Title,
			row.Author,
			row.URL,
			row.TitleKeywords,
			row.BodyKeywords,
			row.Site,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("append staging row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// Load reads back every staged row across all job files, in file name order
// so repeated merges see a stable sequence.
func (s *Staging) Load() ([]domain.FilteredRow, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read staging dir: %w", err)
	}

	var rows []domain.FilteredRow
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f, err := os.Open(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("open staged file %s: %w", entry.Name(), err)
		}

		r := csv.NewReader(f)
		r.FieldsPerRecord = stagingColumns
		records, err := r.ReadAll()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read staged file %s: %w", entry.Name(), err)
		}

		for _, rec := range records {
			rows = append(rows, domain.FilteredRow{
				PageURL:       rec[0],
				Date:          rec[1],
				Title:         rec[2],
				Author:        rec[3],
				URL:           rec[4],
				TitleKeywords: rec[5],
				BodyKeywords:  rec[6],
				Site:          rec[7],
			})
		}
	}
	return rows, nil
}

// Remove deletes the staging directory and everything under it.
func (s *Staging) Remove() error {
	return os.RemoveAll(s.dir)
}
