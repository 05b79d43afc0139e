package insulin

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Insulina"

var exportHeader = []string{"Fecha", "Unidades", "Glucosa", "Responsable", "Observaciones"}

// ExportXLSX arma una planilla con el historial de dosis (p.ej. para el veterinario).
// loc define la zona horaria de la columna Fecha; nil = UTC.
func ExportXLSX(petName string, apps []Application, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := f.SetCellValue(exportSheet, "A1", petName); err != nil {
		return nil, err
	}
	for i, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	widths := []float64{20, 10, 10, 38, 50}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, col, col, w); err != nil {
			return nil, err
		}
	}

	for i, a := range apps {
		row := i + 3
		values := []any{
			a.AppliedAt.In(loc).Format("2006-01-02 15:04"),
			a.InsulinUnits,
			nil,
			a.UserID,
			a.Observations,
		}
		if a.GlucoseLevel != nil {
			values[2] = *a.GlucoseLevel
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
