package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/soywatch/backend/internal/contracts"
	"github.com/wonny/soywatch/backend/pkg/logger"
)

// MaxSheetNameLength is the spreadsheet limit on sheet names, in characters
const MaxSheetNameLength = 31

const defaultSheet = "Sheet1"

// ExcelExporter writes one contract summary sheet plus one sheet per yearly series
// ⭐ SSOT: 엑셀 파일 생성은 이 exporter에서만
type ExcelExporter struct {
	path          string
	contractSheet string
	logger        *logger.Logger
}

// NewExcelExporter creates a new ExcelExporter
func NewExcelExporter(path, contractSheet string, log *logger.Logger) *ExcelExporter {
	if contractSheet == "" {
		contractSheet = "合约汇总"
	}
	return &ExcelExporter{
		path:          path,
		contractSheet: SheetName(contractSheet),
		logger:        log.WithField("module", "excel_exporter"),
	}
}

// Export replaces the output file with a workbook built from result
func (e *ExcelExporter) Export(ctx context.Context, result *contracts.CollectionResult) (string, error) {
	if result.IsEmpty() {
		return "", fmt.Errorf("%w: nothing to export", contracts.ErrNoData)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.Remove(e.path); err == nil {
		e.logger.WithField("path", e.path).Info("Removed previous output file")
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove old output: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	w := &workbook{file: f}

	if len(result.ContractRows) > 0 {
		rows := 0
		sheet, err := w.addSheet(e.contractSheet, contracts.ContractColumns)
		if err != nil {
			return "", err
		}
		for _, set := range result.ContractRows {
			for _, row := range set {
				if err := w.appendRow(sheet, row.Values()); err != nil {
					return "", err
				}
				rows++
			}
		}
		e.logger.WithFields(map[string]interface{}{
			"sheet": sheet,
			"rows":  rows,
		}).Info("Contract summary written")
	}

	for _, name := range result.YearlyOrder {
		sheet, err := w.addSheet(SheetName(name), contracts.YearlyColumns)
		if err != nil {
			return "", err
		}
		for _, point := range result.YearlyData[name] {
			if err := w.appendRow(sheet, point.Values()); err != nil {
				return "", err
			}
		}
		e.logger.WithFields(map[string]interface{}{
			"series": name,
			"sheet":  sheet,
			"rows":   len(result.YearlyData[name]),
		}).Info("Yearly closes written")
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(e.path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.WithField("path", e.path).Info("Workbook saved")
	return e.path, nil
}

// workbook tracks the next free row of every sheet. Sheet names are
// case-insensitive, so used names are keyed in lower case.
type workbook struct {
	file    *excelize.File
	nextRow map[string]int
	used    map[string]bool
}

// addSheet creates a sheet with a header row and returns the name it got,
// which differs from name when name is already taken.
func (w *workbook) addSheet(name string, header []string) (string, error) {
	if w.nextRow == nil {
		w.nextRow = make(map[string]int)
		w.used = make(map[string]bool)
		if err := w.file.SetSheetName(defaultSheet, name); err != nil {
			return "", fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else {
		name = w.uniqueName(name)
		if _, err := w.file.NewSheet(name); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	w.used[strings.ToLower(name)] = true

	w.nextRow[name] = 1
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	return name, w.appendRow(name, values)
}

// uniqueName appends ~2, ~3, ... to name until it is unused, shortening the
// base so the result still fits MaxSheetNameLength
func (w *workbook) uniqueName(name string) string {
	if !w.used[strings.ToLower(name)] {
		return name
	}
	base := []rune(name)
	for n := 2; ; n++ {
		suffix := fmt.Sprintf("~%d", n)
		keep := MaxSheetNameLength - utf8.RuneCountInString(suffix)
		if len(base) < keep {
			keep = len(base)
		}
		candidate := string(base[:keep]) + suffix
		if !w.used[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

func (w *workbook) appendRow(sheet string, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.nextRow[sheet])
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	w.nextRow[sheet]++
	return nil
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// SheetName replaces characters sheets may not contain and truncates to MaxSheetNameLength runes
func SheetName(name string) string {
	name = sheetNameReplacer.Replace(strings.TrimSpace(name))
	if name == "" {
		return defaultSheet
	}
	if utf8.RuneCountInString(name) <= MaxSheetNameLength {
		return name
	}
	return string([]rune(name)[:MaxSheetNameLength])
}
