package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"rankdelta/internal/config"
	apperrors "rankdelta/internal/errors"
)

func testPipelineConfig() config.PipelineConfig {
	cfg := config.Default().Pipeline
	return cfg
}

func TestFindHeaderRow(t *testing.T) {
	markers := config.MarkerConfig{Code: "代码", Name: "名称", Percent: "涨幅"}

	tests := []struct {
		name     string
		rows     [][]string
		scanRows int
		expected int
	}{
		{
			name: "header first",
			rows: [][]string{
				{"代码", "名称", "涨幅%"},
				{"000001", "平安银行", "1.2"},
			},
			scanRows: 5,
			expected: 0,
		},
		{
			name: "two preamble rows",
			rows: [][]string{
				{"导出时间 2024-01-15"},
				{""},
				{"代码", "名称", "涨幅%"},
				{"000001", "平安银行", "1.2"},
			},
			scanRows: 5,
			expected: 2,
		},
		{
			name: "marker cells with embedded whitespace",
			rows: [][]string{
				{"证券 代码", "证券 名称", "涨 幅%"},
			},
			scanRows: 5,
			expected: 0,
		},
		{
			name: "code plus percent without name",
			rows: [][]string{
				{"preamble"},
				{"代码", "涨幅%"},
			},
			scanRows: 5,
			expected: 1,
		},
		{
			name: "no match degrades to zero",
			rows: [][]string{
				{"a", "b"},
				{"c", "d"},
			},
			scanRows: 5,
			expected: 0,
		},
		{
			name: "header beyond scan window degrades to zero",
			rows: [][]string{
				{"p1"}, {"p2"}, {"p3"},
				{"代码", "名称", "涨幅%"},
			},
			scanRows: 2,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindHeaderRow(tt.rows, tt.scanRows, markers))
		})
	}
}

func TestSniffSeparator(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected rune
	}{
		{"comma", "a,b,c\n1,2,3\n", ','},
		{"tab", "a\tb\tc\n", '\t'},
		{"semicolon", "a;b;c\n", ';'},
		{"pipe", "a|b|c\n", '|'},
		{"single column defaults to comma", "a\nb\n", ','},
		{"leading blank line skipped", "\n\na;b;c\n", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sniffSeparator(tt.text))
		})
	}
}

func TestReader_DelimitedUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zxg20240115.csv")
	content := "自选股导出\n代码,名称,涨幅%\n000001,平安银行,1.23\n600519,贵州茅台,-0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := NewReader(testPipelineConfig(), nil).Read(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"代码", "名称", "涨幅%"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "000001", table.Rows[0][0])
}

func TestReader_DelimitedGBK(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zxg20240116.txt")

	gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes(
		[]byte("代码\t名称\t涨幅%\n000001\t平安银行\t1.23\n"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, gbk, 0644))

	table, err := NewReader(testPipelineConfig(), nil).Read(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"代码", "名称", "涨幅%"}, table.Columns)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "平安银行", table.Rows[0][1])
}

func TestReader_DelimitedUTF8BOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("代码,涨幅%\n000001,2.0\n")...)
	require.NoError(t, os.WriteFile(path, content, 0644))

	table, err := NewReader(testPipelineConfig(), nil).Read(path)
	require.NoError(t, err)
	// BOM must not leak into the first column name.
	assert.Equal(t, "代码", table.Columns[0])
}

func TestReader_Spreadsheet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zxg20240117.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "自选股导出"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "代码"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "名称"))
	require.NoError(t, f.SetCellValue(sheet, "C2", "涨幅%"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "000001"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "平安银行"))
	require.NoError(t, f.SetCellValue(sheet, "C3", 1.23))
	require.NoError(t, f.SaveAs(path))

	table, err := NewReader(testPipelineConfig(), nil).Read(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"代码", "名称", "涨幅%"}, table.Columns)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "000001", table.Rows[0][0])
}

func TestReader_MisleadingExtensionFallsBackToDelimited(t *testing.T) {
	dir := t.TempDir()
	// A delimited export saved with a spreadsheet extension.
	path := filepath.Join(dir, "zxg20240118.xls")
	content := "代码,名称,涨幅%\n000001,平安银行,1.23\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := NewReader(testPipelineConfig(), nil).Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"代码", "名称", "涨幅%"}, table.Columns)
}

func TestReader_AllCandidatesFail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xFE, 0x00, 0xD8}, 0644))

	cfg := testPipelineConfig()
	cfg.EncodingCandidates = []string{"utf-8"}

	_, err := NewReader(cfg, nil).Read(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsFormat(err))
}

func TestDecodeAs_UnknownEncoding(t *testing.T) {
	_, err := decodeAs("ebcdic", []byte("abc"))
	require.Error(t, err)
}

func TestDecodeAs_Latin1NeverFails(t *testing.T) {
	decoded, err := decodeAs("latin-1", []byte{0xFF, 0xFE, 0x41})
	require.NoError(t, err)
	assert.Contains(t, decoded, "A")
}
