package parsers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"MS": {
			{"Member ID1", "Player1", "Position"},
			{"12345", "Alice", 1},
			{"", "", ""},
			{"67890", "Bob", 2},
		},
	})

	wb, err := ParseWorkbook(data)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	require.Equal(t, "MS", wb.Sheets[0].Name)
	require.Len(t, wb.Sheets[0].Rows, 2)
	require.Equal(t, "Alice", wb.Sheets[0].Rows[0]["Player1"])
	require.Equal(t, "1", wb.Sheets[0].Rows[0]["Position"])
	require.Equal(t, "67890", wb.Sheets[0].Rows[1]["Member ID1"])
}

func TestParseWorkbookEmptySheet(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{"Empty": {}})

	wb, err := ParseWorkbook(data)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	require.Empty(t, wb.Sheets[0].Rows)
}

func TestParseWorkbookRejectsGarbage(t *testing.T) {
	_, err := ParseWorkbook([]byte("definitely not a zip archive"))
	require.Error(t, err)
}

func TestParseWorkbookShortRows(t *testing.T) {
	data := buildWorkbook(t, map[string][][]interface{}{
		"MD": {
			{"Member ID1", "Member ID2", "Player1", "Player2", "Position", "Position2"},
			{"111", "", "Bob"},
		},
	})

	wb, err := ParseWorkbook(data)
	require.NoError(t, err)
	require.Len(t, wb.Sheets[0].Rows, 1)
	row := wb.Sheets[0].Rows[0]
	require.Equal(t, "Bob", row["Player1"])
	_, hasPosition := row["Position"]
	require.False(t, hasPosition)
}
