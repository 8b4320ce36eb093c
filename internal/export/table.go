package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/charmap"
)

// utf8BOM prefixes exports produced on Windows.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// table is a column-checked view over one loaded export file. Header cells
// are trimmed and matched case-insensitively so header drift between export
// tool versions does not break column lookup.
type table struct {
	file string
	idx  map[string]int
	rows [][]string
}

// loadTable reads the named export from dir, preferring the CSV and falling
// back to an .xlsx twin. The second return is false when neither file
// exists, which callers treat as "dataset not exported".
func loadTable(dir, name string) (*table, bool, error) {
	csvPath := filepath.Join(dir, name)
	if _, err := os.Stat(csvPath); err == nil {
		t, err := readCSVTable(csvPath)
		return t, true, err
	}

	xlsxPath := strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".xlsx"
	if _, err := os.Stat(xlsxPath); err == nil {
		t, err := readXLSXTable(xlsxPath)
		return t, true, err
	}

	return nil, false, nil
}

// readCSVTable loads a CSV export. Files are decoded as UTF-8 first; when
// the bytes are not valid UTF-8 the read is retried as windows-1252, the
// single-byte encoding the export tool emits on some locales.
func readCSVTable(path string) (*table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: read %s", path)
	}

	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		raw, err = charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "export: decode %s", path)
		}
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "export: parse %s", path)
		}
		records = append(records, record)
	}

	return newTable(path, records)
}

// readXLSXTable loads the first sheet of an XLSX export.
func readXLSXTable(path string) (*table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("export: %s has no sheets", path)
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}

	return newTable(path, records)
}

func newTable(path string, records [][]string) (*table, error) {
	if len(records) == 0 {
		return nil, eris.Errorf("export: %s is empty", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	return &table{file: filepath.Base(path), idx: idx, rows: records[1:]}, nil
}

// require fails with a descriptive schema error when any named column is
// absent, instead of letting lookups silently produce partial rows.
func (t *table) require(cols ...string) error {
	var missing []string
	for _, col := range cols {
		if _, ok := t.idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("export: %s missing columns %s", t.file, strings.Join(missing, ", "))
	}
	return nil
}

// col returns the named cell of a row, or "" when the row is short.
func (t *table) col(row []string, name string) string {
	idx, ok := t.idx[strings.ToLower(name)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
