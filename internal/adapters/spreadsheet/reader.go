package spreadsheet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ogurasousui/headcount-clean-arch/internal/core/ingest"
	"github.com/xuri/excelize/v2"
)

const (
	csvSheetName = "Sheet1"
	xlsCharset   = "utf-8"
)

type format int

const (
	formatUnknown format = iota
	formatXLSX
	formatXLS
	formatCSV
)

// Reader reads the first sheet of xlsx, xls and csv files.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadFirstSheet implements ingest.SheetReader. Fully blank rows are dropped.
func (r *Reader) ReadFirstSheet(ctx context.Context, path string) (*ingest.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch detect(path) {
	case formatXLSX:
		return readXLSX(path)
	case formatCSV:
		return readCSV(path)
	case formatXLS:
		return readXLS(path)
	default:
		return nil, ingest.ErrUnsupportedFile
	}
}

func detect(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".xls":
		return formatXLS
	case ".csv":
		return formatCSV
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return formatUnknown
	}
	switch {
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return formatXLSX
	case mt.Is("application/vnd.ms-excel"):
		return formatXLS
	case mt.Is("text/csv"), mt.Is("text/plain"):
		return formatCSV
	}
	return formatUnknown
}

func readXLSX(path string) (*ingest.Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrUnreadableSheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ingest.ErrEmptyWorkbook
	}

	// Raw values keep dates as serial numbers instead of locale formatted text.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrUnreadableSheet, err)
	}
	return &ingest.Sheet{Name: sheets[0], Rows: compact(rows)}, nil
}

// readXLS reads BIFF workbooks. The decoder panics on some malformed
// streams, so a panic is reported as an unreadable sheet.
func readXLS(path string) (sheet *ingest.Sheet, err error) {
	defer func() {
		if p := recover(); p != nil {
			sheet, err = nil, fmt.Errorf("%w: malformed xls workbook: %v", ingest.ErrUnreadableSheet, p)
		}
	}()

	wb, err := xls.Open(path, xlsCharset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrUnreadableSheet, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ingest.ErrUnreadableSheet)
	}
	if wb.NumSheets() == 0 {
		return nil, ingest.ErrEmptyWorkbook
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, fmt.Errorf("%w: first sheet missing", ingest.ErrUnreadableSheet)
	}

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			continue
		}
		rows = append(rows, xlsCells(row))
	}
	return &ingest.Sheet{Name: ws.Name, Rows: compact(rows)}, nil
}

type xlsRow interface {
	LastCol() int
	Col(i int) string
}

// xlsCells returns the row from column A up to its last non-blank cell.
func xlsCells(row xlsRow) []string {
	cells := make([]string, 0, row.LastCol()+1)
	for c := 0; c <= row.LastCol(); c++ {
		cells = append(cells, row.Col(c))
	}
	for len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func readCSV(path string) (*ingest.Sheet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ingest.ErrUnreadableSheet, err)
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(b))
	cr.Comma = sniffDelimiter(b)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ingest.ErrUnreadableSheet, err)
		}
		rows = append(rows, rec)
	}
	return &ingest.Sheet{Name: csvSheetName, Rows: compact(rows)}, nil
}

// sniffDelimiter picks ';' when the header line has more semicolons than commas.
func sniffDelimiter(b []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(b)).ReadString('\n')
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

func compact(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
