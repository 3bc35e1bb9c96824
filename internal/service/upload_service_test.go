package service

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var bankHeaders = []interface{}{
	"S.No.", "Subject Code", "Subject", "Branch", "Regulation",
	"Year", "Sem", "Month", "Unit", "B.T Level", "Short Questions", "Long Questions",
}

func buildWorkbook(t *testing.T, headers []interface{}, rows ...[]interface{}) io.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headers))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestParseWorkbookMapsRows(t *testing.T) {
	r := buildWorkbook(t, bankHeaders,
		[]interface{}{1, "CS301", "Operating Systems", "CSE", "R21", "III", 5, "Nov", 1, 2, "Define process.", "Explain scheduling."},
		[]interface{}{2, "CS301", "Operating Systems", "CSE", "R21", "III", 5, "Nov", 2, 4, "", "Compare paging and segmentation."},
	)

	questions, err := ParseWorkbook(r)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	q := questions[0]
	assert.Equal(t, "CS301", q.SubjectCode)
	assert.Equal(t, "Operating Systems", q.Subject)
	assert.Equal(t, "CSE", q.Branch)
	assert.Equal(t, "R21", q.Regulation)
	assert.Equal(t, "III", q.Year)
	assert.Equal(t, 5, q.Semester)
	assert.Equal(t, "Nov", q.ExamMonth)
	assert.Equal(t, 1, q.SerialNo)
	assert.Equal(t, 1, q.Unit)
	assert.Equal(t, 2, q.BTLevel)
	assert.Equal(t, "Define process.", q.ShortQuestion)
	assert.Equal(t, "Explain scheduling.", q.LongQuestion)

	// Empty short text stays empty; the row is still ingested for long draws.
	assert.Equal(t, "", questions[1].ShortQuestion)
	assert.Equal(t, 4, questions[1].BTLevel)
}

func TestParseWorkbookSkipsBlankRows(t *testing.T) {
	r := buildWorkbook(t, bankHeaders,
		[]interface{}{1, "CS301", "OS", "CSE", "R21", "III", 5, "Nov", 1, 1, "q1", ""},
		[]interface{}{"", "", "", "", "", "", "", "", "", "", "", ""},
		[]interface{}{2, "CS301", "OS", "CSE", "R21", "III", 5, "Nov", 2, 2, "q2", ""},
	)

	questions, err := ParseWorkbook(r)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}

func TestParseWorkbookMissingHeaders(t *testing.T) {
	r := buildWorkbook(t,
		[]interface{}{"S.No.", "Subject Code", "Subject", "Short Questions"},
		[]interface{}{1, "CS301", "OS", "q1"},
	)

	_, err := ParseWorkbook(r)
	var sheetErr *SheetError
	require.ErrorAs(t, err, &sheetErr)
	assert.Contains(t, sheetErr.MissingHeaders, "Branch")
	assert.Contains(t, sheetErr.MissingHeaders, "B.T Level")
	assert.NotContains(t, sheetErr.MissingHeaders, "Subject")
}

func TestParseWorkbookNoDataRows(t *testing.T) {
	r := buildWorkbook(t, bankHeaders)

	_, err := ParseWorkbook(r)
	assert.ErrorIs(t, err, ErrSheetEmpty)
}

func TestParseWorkbookTolerantNumericCells(t *testing.T) {
	r := buildWorkbook(t, bankHeaders,
		[]interface{}{"n/a", "CS301", "OS", "CSE", "R21", "III", "five", "Nov", "x", "", "q1", ""},
	)

	questions, err := ParseWorkbook(r)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	// Unparseable numeric cells fall back to zero instead of failing the
	// whole upload.
	assert.Equal(t, 0, questions[0].Semester)
	assert.Equal(t, 0, questions[0].SerialNo)
	assert.Equal(t, 0, questions[0].Unit)
	assert.Equal(t, 0, questions[0].BTLevel)
}

func TestParseWorkbookNotAnXlsx(t *testing.T) {
	_, err := ParseWorkbook(bytes.NewReader([]byte("not a spreadsheet")))
	assert.Error(t, err)
}
