package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"

	"rankdelta/internal/config"
	apperrors "rankdelta/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader loads a snapshot file into a Table. Format is dispatched by
// extension: delimited-text extensions go through an ordered encoding
// fallback, spreadsheet extensions through an ordered engine fallback, and a
// spreadsheet that no engine can open is retried as delimited text (some
// screener exports are CSV files with a misleading .xls extension).
type Reader struct {
	cfg    config.PipelineConfig
	logger *slog.Logger
}

// NewReader creates a reader for the given pipeline configuration.
func NewReader(cfg config.PipelineConfig, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{cfg: cfg, logger: logger}
}

// Read loads the file at path and returns its rows with the detected header
// row first. Rows preceding the header are dropped.
func (r *Reader) Read(path string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" || ext == ".txt" {
		return r.readDelimited(path)
	}

	table, err := r.readSpreadsheet(path)
	if err == nil {
		return table, nil
	}
	r.logger.Warn("spreadsheet engines failed, retrying as delimited text",
		slog.String("path", path),
		slog.String("error", err.Error()))
	if table, delimErr := r.readDelimited(path); delimErr == nil {
		return table, nil
	}
	return nil, err
}

// readDelimited tries each configured encoding candidate in order and
// returns the first successful parse.
func (r *Reader) readDelimited(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewFormatError(fmt.Sprintf("failed to read %s", path), err)
	}

	var lastErr error
	for _, name := range r.cfg.EncodingCandidates {
		text, decErr := decodeAs(name, data)
		if decErr != nil {
			lastErr = decErr
			continue
		}
		rows, parseErr := parseDelimited(text)
		if parseErr != nil {
			lastErr = parseErr
			continue
		}
		r.logger.Debug("decoded delimited snapshot",
			slog.String("path", path),
			slog.String("encoding", name),
			slog.Int("rows", len(rows)))
		return r.tableFromRows(rows), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no encoding candidates configured")
	}
	return nil, apperrors.NewFormatError(fmt.Sprintf("no encoding candidate could parse %s", path), lastErr)
}

// readSpreadsheet tries each configured engine in order and returns the
// first successful load.
func (r *Reader) readSpreadsheet(path string) (*Table, error) {
	var lastErr error
	for _, name := range r.cfg.ExcelEngines {
		engine, ok := excelEngines[name]
		if !ok {
			lastErr = fmt.Errorf("unknown excel engine %q", name)
			continue
		}
		rows, err := engine(path)
		if err != nil {
			lastErr = err
			continue
		}
		if len(rows) == 0 {
			lastErr = fmt.Errorf("engine %s loaded no rows from %s", name, path)
			continue
		}
		r.logger.Debug("loaded spreadsheet snapshot",
			slog.String("path", path),
			slog.String("engine", name),
			slog.Int("rows", len(rows)))
		return r.tableFromRows(rows), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no excel engines configured")
	}
	return nil, apperrors.NewFormatError(fmt.Sprintf("no engine candidate could load %s", path), lastErr)
}

// tableFromRows locates the header row within the scan window and returns a
// table whose header is that row, with all preceding rows dropped.
func (r *Reader) tableFromRows(rows [][]string) *Table {
	header := FindHeaderRow(rows, r.cfg.HeaderScanRows, r.cfg.ColumnMarkers)
	table := NewTable(rows[header])
	for _, row := range rows[header+1:] {
		table.AppendRow(row)
	}
	return table
}

// FindHeaderRow scans the first scanRows rows for the row that carries the
// column markers: the code marker together with either the name marker or
// the percent marker, after stripping all whitespace from every cell.
// Returns 0 when no row matches, which assumes the file has no preamble.
//
// The heuristic is kept isolated here so it can be swapped without touching
// the reader.
func FindHeaderRow(rows [][]string, scanRows int, markers config.MarkerConfig) int {
	limit := scanRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		var hasCode, hasName, hasPct bool
		for _, cell := range rows[i] {
			v := stripWhitespace(cell)
			if strings.Contains(v, markers.Code) {
				hasCode = true
			}
			if markers.Name != "" && strings.Contains(v, markers.Name) {
				hasName = true
			}
			if strings.Contains(v, markers.Percent) {
				hasPct = true
			}
		}
		if hasCode && (hasName || hasPct) {
			return i
		}
	}
	return 0
}

// decodeAs decodes data as the named encoding, failing when the bytes are
// not plausible for that encoding. Candidate names match the original
// export tool's conventions.
func decodeAs(name string, data []byte) (string, error) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid utf-8 byte sequence")
		}
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	case "utf-8-sig":
		if !bytes.HasPrefix(data, utf8BOM) {
			return "", fmt.Errorf("missing utf-8 byte order mark")
		}
		trimmed := bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(trimmed) {
			return "", fmt.Errorf("invalid utf-8 byte sequence after byte order mark")
		}
		return string(trimmed), nil
	case "gbk":
		return decodeStrict(data, simplifiedchinese.GBK.NewDecoder().Bytes, name)
	case "gb18030":
		return decodeStrict(data, simplifiedchinese.GB18030.NewDecoder().Bytes, name)
	case "latin-1", "latin1", "iso-8859-1":
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("unknown encoding candidate %q", name)
	}
}

// decodeStrict rejects decodes that produce replacement runes: the x/text
// decoders substitute U+FFFD for invalid input instead of failing, which
// would defeat the first-success candidate selection.
func decodeStrict(data []byte, decode func([]byte) ([]byte, error), name string) (string, error) {
	decoded, err := decode(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", fmt.Errorf("byte sequence is not valid %s", name)
	}
	return string(decoded), nil
}

// parseDelimited splits text into rows, auto-detecting the separator.
func parseDelimited(text string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffSeparator(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file contains no rows")
	}
	return rows, nil
}

// sniffSeparator picks the candidate separator occurring most often in the
// first non-empty line. Comma wins ties and is the fallback.
func sniffSeparator(text string) rune {
	line := text
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	best, bestCount := ',', 0
	for _, sep := range []rune{',', '\t', ';', '|'} {
		if count := strings.Count(line, string(sep)); count > bestCount {
			best, bestCount = sep, count
		}
	}
	return best
}

// excelEngines maps configured engine names to spreadsheet loaders. Both
// engines read the first sheet; the raw variant returns unformatted cell
// values, which recovers files whose number formats mangle the display text.
var excelEngines = map[string]func(path string) ([][]string, error){
	"excelize":     func(path string) ([][]string, error) { return readExcel(path, false) },
	"excelize-raw": func(path string) ([][]string, error) { return readExcel(path, true) },
}

func readExcel(path string, raw bool) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: raw})
}

// stripWhitespace removes every whitespace rune from s.
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
