package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/hanzi/internal/content"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Characters"

var header = []string{
	"Line", "Character", "Pinyin", "English Translation", "Hebrew Translation",
	"Related Sentence", "Sentence Pinyin", "Sentence English Translation",
	"Sentence Hebrew Translation", "Appearances In Sentences", "Group",
}

func record(line int, row content.Row) []string {
	return []string{
		strconv.Itoa(line),
		row.Character,
		row.Pinyin,
		row.EnglishTranslation,
		row.HebrewTranslation,
		row.RelatedSentence,
		row.SentencePinyin,
		row.SentenceEnglishTranslation,
		row.SentenceHebrewTranslation,
		strconv.Itoa(row.AppearancesInSentences),
		row.Group,
	}
}

// WriteDataset writes rows in the layout ReadDataset expects with
// DefaultImportConfig. The format follows the file extension.
func WriteDataset(path string, rows []content.Row) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(path, rows)
	}
	return writeExcel(path, rows)
}

func writeExcel(path string, rows []content.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, record(i+1, row)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func writeCSV(path string, rows []content.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, row := range rows {
		if err := w.Write(record(i+1, row)); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return file.Close()
}
