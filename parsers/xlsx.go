// Package parsers декодирует загруженные книги Excel в табличное
// представление, с которым работает импортёр: имя листа плюс строки,
// ключованные заголовками колонок.
package parsers

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrNoSheets = errors.New("workbook has no sheets")

// Sheet — один лист книги. Rows ключуются именем колонки из строки
// заголовков; полностью пустые строки опускаются.
type Sheet struct {
	Name string
	Rows []map[string]string
}

// Workbook — разобранная книга, листы в исходном порядке.
type Workbook struct {
	Sheets []Sheet
}

// ParseWorkbook читает книгу XLSX из байтов. Первая непустая строка каждого
// листа считается заголовком; ячейки за пределами заголовка отбрасываются.
func ParseWorkbook(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		if strings.Contains(err.Error(), "not a valid zip file") {
			return nil, fmt.Errorf("failed to open workbook: %w (is this a real .xlsx file?)", err)
		}
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, ErrNoSheets
	}

	wb := &Workbook{Sheets: make([]Sheet, 0, len(sheetNames))}
	for _, name := range sheetNames {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: keyRowsByHeader(rows)})
	}
	return wb, nil
}

func keyRowsByHeader(rows [][]string) []map[string]string {
	headerIdx := -1
	var header []string
	for i, row := range rows {
		if !rowEmpty(row) {
			headerIdx = i
			header = row
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	keyed := make([]map[string]string, 0, len(rows)-headerIdx-1)
	for _, row := range rows[headerIdx+1:] {
		if rowEmpty(row) {
			continue
		}
		m := make(map[string]string, len(header))
		for col, name := range header {
			name = strings.TrimSpace(name)
			if name == "" || col >= len(row) {
				continue
			}
			m[name] = row[col]
		}
		keyed = append(keyed, m)
	}
	return keyed
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
