package tables

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteTable saves a document in the format named by the path extension.
// CSV output drops correlations.
func WriteTable(path string, doc Document) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(path, doc)
	}
	return WriteWorkbook(path, doc)
}

// WriteWorkbook saves a document as an xlsx file readable by TableReader.
func WriteWorkbook(path string, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EntriesSheet); err != nil {
		return err
	}
	if err := writeSheet(f, EntriesSheet, entryColumns, entryRows(doc)); err != nil {
		return err
	}

	corr := correlationRows(doc)
	if len(corr) > 0 {
		if _, err := f.NewSheet(CorrelationsSheet); err != nil {
			return err
		}
		if err := writeSheet(f, CorrelationsSheet, correlationColumns, corr); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCSV(path string, doc Document) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(entryColumns); err != nil {
		return err
	}
	for _, row := range entryRows(doc) {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func num(x float64) string {
	if x == 0 {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func entryRows(doc Document) [][]string {
	var rows [][]string
	for _, e := range doc.Entries {
		if len(e.Observables) == 0 {
			value := ""
			if e.Value != nil {
				value = strconv.FormatFloat(*e.Value, 'g', -1, 64)
			}
			rows = append(rows, []string{e.Name, "", value,
				num(e.Stat), num(e.Syst), num(e.Model), num(e.External), e.Reference})
			continue
		}
		for i, o := range e.Observables {
			ref := ""
			if i == 0 {
				ref = e.Reference
			}
			rows = append(rows, []string{e.Name, o.Label, strconv.FormatFloat(o.Value, 'g', -1, 64),
				num(o.Stat), num(o.Syst), num(o.Model), num(o.External), ref})
		}
	}
	return rows
}

func correlationRows(doc Document) [][]string {
	var rows [][]string
	for _, e := range doc.Entries {
		slots := make([]string, 0, len(e.Correlations))
		for s := range e.Correlations {
			slots = append(slots, s)
		}
		sort.Strings(slots)

		for _, s := range slots {
			m := e.Correlations[s]
			for i := range m {
				for j := i + 1; j < len(m); j++ {
					rho, err := upperAt(m, i, j)
					if err != nil || rho == 0 || j >= len(e.Observables) {
						continue
					}
					rows = append(rows, []string{e.Name, s,
						e.Observables[i].Label, e.Observables[j].Label,
						strconv.FormatFloat(rho, 'g', -1, 64)})
				}
			}
		}
	}
	return rows
}

// upperAt reads rho_ij (i < j) from rows in either compact or full form.
func upperAt(rows [][]float64, i, j int) (float64, error) {
	n := len(rows)
	row := rows[i]
	switch len(row) {
	case n - i:
		return row[j-i], nil
	case n:
		return row[j], nil
	}
	return 0, fmt.Errorf("row %d has %d entries", i, len(row))
}
