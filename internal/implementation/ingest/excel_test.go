package ingest

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeSheet(t *testing.T, f *excelize.File, sheet string, rows [][]any) {
	t.Helper()
	index, err := f.GetSheetIndex(sheet)
	require.NoError(t, err)
	if index == -1 {
		_, err = f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
}

func workbookBytes(t *testing.T, f *excelize.File) io.Reader {
	t.Helper()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func allowanceFixture(t *testing.T) io.Reader {
	f := excelize.NewFile()
	writeSheet(t, f, allowanceSheetName, [][]any{
		{"Band", "Allowance Type", "Monthly Amount"},
		{"Band A", "Responsibility", "300.00"},
		{"Band A", "Fuel", "1,150.50"},
		{"Band B", "Responsibility", 200},
	})
	writeSheet(t, f, salaryScaleSheetName, [][]any{
		{"Band", "Level", "Notch", "Monthly Amount"},
		{"Band A", "1", "1", "4,000.00"},
		{"Band B", "2", "1", 3000},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))
	return workbookBytes(t, f)
}

func staffFixture(t *testing.T) io.Reader {
	f := excelize.NewFile()
	writeSheet(t, f, "Senior Staff", [][]any{
		{"Staff No", "Full Name", "Band", "Level", "Notch", "NIA No", "Bank", "Branch", "Account No", "PF", "Union", "Rent"},
		{"EMP-001", "Ama Mensah", "Band A", "1", "1", "GHA-000000001-1", "GCB Bank", "Accra Main", "1010001", "YES", "Senior Staff Association", ""},
	})
	writeSheet(t, f, "Junior Staff", [][]any{
		{"Staff No", "Full Name", "Band", "Level", "Notch", "NIA No", "Bank", "Branch", "Account No", "PF", "Union", "Rent"},
		{"EMP-002", "Yaw Boateng", "Band B", "2", "1", "", "GCB Bank", "Kumasi", "2020002", "no", "", "250.00"},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))
	return workbookBytes(t, f)
}

func TestExcelParser_Parse(t *testing.T) {
	parser := NewExcelParser()

	wb, err := parser.Parse(context.Background(), allowanceFixture(t), staffFixture(t))
	require.NoError(t, err)

	require.Len(t, wb.Allowances, 3)
	assert.Equal(t, AllowanceRow{Band: "Band A", AllowanceType: "Fuel", MonthlyAmount: 1150.50}, wb.Allowances[1])

	require.Len(t, wb.SalaryScale, 2)
	assert.Equal(t, SalaryScaleRow{Band: "Band A", Level: "1", Notch: "1", MonthlyAmount: 4000}, wb.SalaryScale[0])

	require.Len(t, wb.Sheets, 2)
	assert.Equal(t, 2, wb.StaffCount())

	senior := wb.Sheets[0].Rows[0]
	assert.Equal(t, "EMP-001", senior.StaffNumber)
	assert.Equal(t, 2, senior.Row)
	assert.True(t, senior.ProvidentFund)
	assert.Equal(t, "Senior Staff Association", senior.UnionName)
	assert.Zero(t, senior.MonthlyRent)

	junior := wb.Sheets[1].Rows[0]
	assert.Equal(t, "EMP-002", junior.StaffNumber)
	assert.False(t, junior.ProvidentFund)
	assert.Equal(t, 250.0, junior.MonthlyRent)
	assert.Empty(t, junior.NIANumber)
}

func TestExcelParser_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	writeSheet(t, f, allowanceSheetName, [][]any{
		{"Band", "Allowance Type", "Monthly Amount"},
		{"Band A", "Responsibility", "300.00"},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))

	parser := NewExcelParser()
	_, err := parser.Parse(context.Background(), workbookBytes(t, f), staffFixture(t))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "allowance", parseErr.File)
	assert.Contains(t, parseErr.Reason, salaryScaleSheetName)
}

func TestExcelParser_InvalidAmount(t *testing.T) {
	f := excelize.NewFile()
	writeSheet(t, f, allowanceSheetName, [][]any{
		{"Band", "Allowance Type", "Monthly Amount"},
		{"Band A", "Responsibility", "three hundred"},
	})
	writeSheet(t, f, salaryScaleSheetName, [][]any{
		{"Band", "Level", "Notch", "Monthly Amount"},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))

	parser := NewExcelParser()
	_, err := parser.Parse(context.Background(), workbookBytes(t, f), staffFixture(t))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Reason, "invalid amount")
}

func TestExcelParser_NotASpreadsheet(t *testing.T) {
	parser := NewExcelParser()
	_, err := parser.Parse(context.Background(), bytes.NewReader([]byte("plain text")), bytes.NewReader([]byte("plain text")))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "allowance", parseErr.File)
}

func TestExcelParser_ShortStaffRow(t *testing.T) {
	f := excelize.NewFile()
	writeSheet(t, f, "Staff", [][]any{
		{"Staff No", "Full Name", "Band"},
		{"EMP-001", "Ama Mensah", "Band A"},
	})
	require.NoError(t, f.DeleteSheet("Sheet1"))

	parser := NewExcelParser()
	_, err := parser.Parse(context.Background(), allowanceFixture(t), workbookBytes(t, f))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "staff", parseErr.File)
	assert.Contains(t, parseErr.Reason, "expected at least")
}
