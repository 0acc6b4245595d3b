package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lekbanken/gamedesk/modules/games/domain/game"
	"github.com/lekbanken/gamedesk/modules/games/importer"
)

const xlsxSheetName = "Games"

// GenerateXLSX renders games as a single-sheet workbook with the same
// canonical columns as the CSV format, plus a bold frozen header row.
// It shares the CSV scope limits, see ScopeNotes.
func GenerateXLSX(games []game.ParsedGame) ([]byte, []string, error) {
	header := importer.AllColumns()
	notes := ScopeNotes(games)

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return nil, nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, column := range header {
		headerRow[i] = column
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &headerRow); err != nil {
		return nil, nil, fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, cerr := excelize.CoordinatesToCellName(len(header), 1)
		if cerr == nil {
			_ = f.SetCellStyle(xlsxSheetName, "A1", endCell, headerStyle)
		}
	}
	if err := f.SetPanes(xlsxSheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return nil, nil, fmt.Errorf("freeze header: %w", err)
	}

	for i, g := range games {
		row, err := renderRow(g, header)
		if err != nil {
			return nil, nil, fmt.Errorf("game %s: %w", g.GameKey, err)
		}
		values := make([]any, len(row))
		for j, cell := range row {
			values[j] = cell
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, nil, err
		}
		if err := f.SetSheetRow(xlsxSheetName, cellName, &values); err != nil {
			return nil, nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), notes, nil
}
