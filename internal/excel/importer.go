package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/hanzi/internal/content"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines where the dataset lives and which column holds which
// field. Column names use spreadsheet letters for both .xlsx and .csv files.
type ImportConfig struct {
	FilePath                         string // Path to the Excel or CSV file
	SheetName                        string // Sheet to read; empty means the first sheet
	StartRow                         int    // First data row (1-based)
	CharacterColumn                  string
	PinyinColumn                     string
	EnglishTranslationColumn         string
	HebrewTranslationColumn          string
	SentenceColumn                   string
	SentencePinyinColumn             string
	SentenceEnglishTranslationColumn string
	SentenceHebrewTranslationColumn  string
	AppearancesColumn                string
	GroupColumn                      string
}

// DefaultImportConfig returns the layout of the content spreadsheet: a line
// number in column A followed by the character, its translations, the
// example sentence and its translations, the appearance count and the group.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		StartRow:                         2, // skip header
		CharacterColumn:                  "B",
		PinyinColumn:                     "C",
		EnglishTranslationColumn:         "D",
		HebrewTranslationColumn:          "E",
		SentenceColumn:                   "F",
		SentencePinyinColumn:             "G",
		SentenceEnglishTranslationColumn: "H",
		SentenceHebrewTranslationColumn:  "I",
		AppearancesColumn:                "J",
		GroupColumn:                      "K",
	}
}

// ImportResult holds the outcome of reading a dataset file
type ImportResult struct {
	TotalProcessed int
	Skipped        int
	Errors         []string
}

type columnIndexes struct {
	character, pinyin, english, hebrew                                int
	sentence, sentencePinyin, sentenceEnglish, sentenceHebrew, appear int
	group                                                             int
}

func (c ImportConfig) indexes() (columnIndexes, error) {
	var idx columnIndexes
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{c.CharacterColumn, &idx.character},
		{c.PinyinColumn, &idx.pinyin},
		{c.EnglishTranslationColumn, &idx.english},
		{c.HebrewTranslationColumn, &idx.hebrew},
		{c.SentenceColumn, &idx.sentence},
		{c.SentencePinyinColumn, &idx.sentencePinyin},
		{c.SentenceEnglishTranslationColumn, &idx.sentenceEnglish},
		{c.SentenceHebrewTranslationColumn, &idx.sentenceHebrew},
		{c.AppearancesColumn, &idx.appear},
		{c.GroupColumn, &idx.group},
	} {
		if col.name == "" {
			*col.dst = -1
			continue
		}
		n, err := excelize.ColumnNameToNumber(col.name)
		if err != nil {
			return idx, fmt.Errorf("invalid column %q: %w", col.name, err)
		}
		*col.dst = n - 1
	}
	if idx.character < 0 {
		return idx, errors.New("character column is required")
	}
	return idx, nil
}

// ReadDataset reads content rows from an Excel or CSV file. Rows without a
// character or with an unreadable appearance count are skipped and reported
// in the result; the returned rows keep file order.
func ReadDataset(config ImportConfig) ([]content.Row, *ImportResult, error) {
	idx, err := config.indexes()
	if err != nil {
		return nil, nil, err
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	var records [][]string
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		records, err = readCSV(config.FilePath)
	} else {
		records, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	rows := make([]content.Row, 0, len(records))

	for i, record := range records {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(record) {
			continue
		}
		result.TotalProcessed++

		row, err := parseRow(record, idx)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		rows = append(rows, row)
	}

	return rows, result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		if len(records) == 0 && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
		}
		records = append(records, record)
	}
	return records, nil
}

func parseRow(record []string, idx columnIndexes) (content.Row, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := content.Row{
		Character:                  cell(idx.character),
		Pinyin:                     cell(idx.pinyin),
		EnglishTranslation:         cell(idx.english),
		HebrewTranslation:          cell(idx.hebrew),
		RelatedSentence:            cell(idx.sentence),
		SentencePinyin:             cell(idx.sentencePinyin),
		SentenceEnglishTranslation: cell(idx.sentenceEnglish),
		SentenceHebrewTranslation:  cell(idx.sentenceHebrew),
		Group:                      cell(idx.group),
	}
	if row.Character == "" {
		return row, errors.New("character cannot be empty")
	}

	if v := cell(idx.appear); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return row, fmt.Errorf("invalid appearance count %q", v)
		}
		row.AppearancesInSentences = n
	}
	return row, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
