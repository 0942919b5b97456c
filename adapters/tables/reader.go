package tables

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"flavorfit/domain/core"
	"flavorfit/internal"
)

// Sheet names used in measurement workbooks.
const (
	EntriesSheet      = "entries"
	CorrelationsSheet = "correlations"
)

var (
	entryColumns       = []string{"name", "label", "value", "stat", "syst", "model", "external", "reference"}
	correlationColumns = []string{"name", "slot", "a", "b", "rho"}

	readerLog = internal.DefaultLogger.With("TableReader")
)

// TableReader reads measurement tables from Excel workbooks or CSV files.
//
// A workbook carries an "entries" sheet with one row per scalar or group
// member and an optional "correlations" sheet with one row per off-diagonal
// coefficient. Consecutive entry rows sharing a name and carrying a label
// form a group. CSV files hold the entries table only.
type TableReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewTableReader picks the format from the file extension.
func NewTableReader(filePath string) *TableReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &TableReader{filePath: filePath, fileType: fileType}
}

// Read parses the file into a Document.
func (r *TableReader) Read() (Document, error) {
	readerLog.Debug("reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return Document{}, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	case "xlsx":
		return r.readWorkbook()
	default:
		return Document{}, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *TableReader) readWorkbook() (Document, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	entryRows, err := f.GetRows(EntriesSheet)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read sheet %q: %w", EntriesSheet, err)
	}
	doc, err := parseEntries(entryRows)
	if err != nil {
		return Document{}, err
	}

	if idx, err := f.GetSheetIndex(CorrelationsSheet); err == nil && idx != -1 {
		corrRows, err := f.GetRows(CorrelationsSheet)
		if err != nil {
			return Document{}, fmt.Errorf("failed to read sheet %q: %w", CorrelationsSheet, err)
		}
		if err := applyCorrelations(&doc, corrRows); err != nil {
			return Document{}, err
		}
	}

	readerLog.Debug("workbook read in %.2fms (%d entries)",
		float64(time.Since(start).Nanoseconds())/1e6, len(doc.Entries))
	return doc, nil
}

func (r *TableReader) readCSV() (Document, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return Document{}, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return parseEntries(rows)
}

// header maps column names to positions and checks the required ones.
func header(row []string, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(row))
	for i, h := range row {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", core.ErrDataEntry, name)
		}
	}
	return cols, nil
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func numberCell(row []string, cols map[string]int, name string, line int) (float64, error) {
	s := cell(row, cols, name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d column %s: %q is not a number", core.ErrDataEntry, line, name, s)
	}
	return v, nil
}

func parseEntries(rows [][]string) (Document, error) {
	if len(rows) < 2 {
		return Document{}, fmt.Errorf("%w: table must have a header row and one data row", core.ErrDataEntry)
	}
	cols, err := header(rows[0], []string{"name", "value"})
	if err != nil {
		return Document{}, err
	}

	var doc Document
	for i, row := range rows[1:] {
		line := i + 2
		name := cell(row, cols, "name")
		if name == "" {
			continue
		}

		if cell(row, cols, "value") == "" {
			return Document{}, fmt.Errorf("%w: row %d (%s): no value", core.ErrDataEntry, line, name)
		}
		var vals [5]float64
		for k, col := range []string{"value", "stat", "syst", "model", "external"} {
			v, err := numberCell(row, cols, col, line)
			if err != nil {
				return Document{}, err
			}
			vals[k] = v
		}
		uncs := Uncertainties{Stat: vals[1], Syst: vals[2], Model: vals[3], External: vals[4]}
		label := cell(row, cols, "label")

		if label == "" {
			value := vals[0]
			doc.Entries = append(doc.Entries, EntryDoc{
				Name:          name,
				Reference:     cell(row, cols, "reference"),
				Value:         &value,
				Uncertainties: uncs,
			})
			continue
		}

		obs := ObservableDoc{Label: label, Value: vals[0], Uncertainties: uncs}
		if n := len(doc.Entries); n > 0 && doc.Entries[n-1].Name == name && len(doc.Entries[n-1].Observables) > 0 {
			doc.Entries[n-1].Observables = append(doc.Entries[n-1].Observables, obs)
			continue
		}
		doc.Entries = append(doc.Entries, EntryDoc{
			Name:        name,
			Reference:   cell(row, cols, "reference"),
			Observables: []ObservableDoc{obs},
		})
	}
	return doc, nil
}

func applyCorrelations(doc *Document, rows [][]string) error {
	if len(rows) < 2 {
		return nil
	}
	cols, err := header(rows[0], correlationColumns)
	if err != nil {
		return err
	}

	groups := make(map[string]*EntryDoc, len(doc.Entries))
	for i := range doc.Entries {
		if len(doc.Entries[i].Observables) > 0 {
			groups[doc.Entries[i].Name] = &doc.Entries[i]
		}
	}

	for i, row := range rows[1:] {
		line := i + 2
		name := cell(row, cols, "name")
		if name == "" {
			continue
		}
		g, ok := groups[name]
		if !ok {
			return fmt.Errorf("%w: correlation row %d names unknown group %q", core.ErrDataEntry, line, name)
		}
		a, err := labelIndex(g, cell(row, cols, "a"))
		if err != nil {
			return fmt.Errorf("correlation row %d: %w", line, err)
		}
		b, err := labelIndex(g, cell(row, cols, "b"))
		if err != nil {
			return fmt.Errorf("correlation row %d: %w", line, err)
		}
		if a == b {
			return fmt.Errorf("%w: correlation row %d pairs %q with itself", core.ErrDataEntry, line, cell(row, cols, "a"))
		}
		rho, err := numberCell(row, cols, "rho", line)
		if err != nil {
			return err
		}

		slot := strings.ToLower(cell(row, cols, "slot"))
		if g.Correlations == nil {
			g.Correlations = make(map[string][][]float64)
		}
		m, ok := g.Correlations[slot]
		if !ok {
			m = fullIdentity(len(g.Observables))
			g.Correlations[slot] = m
		}
		m[a][b] = rho
		m[b][a] = rho
	}
	return nil
}

func labelIndex(g *EntryDoc, label string) (int, error) {
	for i, o := range g.Observables {
		if o.Label == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: group %s has no observable %q", core.ErrDataEntry, g.Name, label)
}

func fullIdentity(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		rows[i][i] = 1
	}
	return rows
}
