package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"datadash/internal/models"
)

// ErrEmptyDataset is returned when a file parses but yields zero data rows.
var ErrEmptyDataset = errors.New("dataset has no rows")

// Load parses raw file bytes into a dataset, dispatching on the file
// extension. Unknown extensions are tried as CSV.
func Load(name string, data []byte) (*models.Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		ds, err := LoadXLSX(data)
		if err != nil {
			return nil, err
		}
		ds.Name = name
		return ds, nil
	case ".json":
		ds, err := LoadJSON(data)
		if err != nil {
			return nil, err
		}
		ds.Name = name
		return ds, nil
	default:
		ds, err := LoadCSV(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		ds.Name = name
		return ds, nil
	}
}

// coerceCell tags a raw string cell: empty -> absent, numeric-looking ->
// number, true/false -> bool, anything else -> text.
func coerceCell(s string) models.Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return models.Absent()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return models.Number(f)
	}
	switch trimmed {
	case "true", "TRUE", "True":
		return models.Boolean(true)
	case "false", "FALSE", "False":
		return models.Boolean(false)
	}
	return models.Text(s)
}

// LoadCSV reads a headered CSV stream into row maps. Short records are
// padded with absent cells; malformed records are skipped rather than
// failing the whole load.
func LoadCSV(r io.Reader) (*models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	var rows []models.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		row := make(models.Row, len(cols))
		for i, col := range cols {
			if i < len(record) {
				row[col] = coerceCell(record[i])
			} else {
				row[col] = models.Absent()
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}

	return &models.Dataset{ID: uuid.NewString(), Cols: cols, Rows: rows}, nil
}

// LoadXLSX reads the first non-empty sheet of a workbook. All sheet names
// are reported so a caller can offer sheet selection.
func LoadXLSX(data []byte) (*models.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		raw, err := f.GetRows(sheet)
		if err != nil || len(raw) < 2 {
			continue
		}
		cols := make([]string, len(raw[0]))
		for i, h := range raw[0] {
			cols[i] = strings.TrimSpace(h)
		}
		rows := make([]models.Row, 0, len(raw)-1)
		for _, record := range raw[1:] {
			row := make(models.Row, len(cols))
			for i, col := range cols {
				if i < len(record) {
					row[col] = coerceCell(record[i])
				} else {
					row[col] = models.Absent()
				}
			}
			rows = append(rows, row)
		}
		return &models.Dataset{
			ID:     uuid.NewString(),
			Sheet:  sheet,
			Sheets: sheets,
			Cols:   cols,
			Rows:   rows,
		}, nil
	}
	return nil, ErrEmptyDataset
}

// LoadJSON reads an array of flat objects. Column order follows key order of
// the first object as it appears in the document.
func LoadJSON(data []byte) (*models.Dataset, error) {
	var objs []map[string]models.Value
	if err := json.Unmarshal(data, &objs); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if len(objs) == 0 {
		return nil, ErrEmptyDataset
	}

	cols, err := firstObjectKeys(data)
	if err != nil || len(cols) == 0 {
		return nil, ErrEmptyDataset
	}

	rows := make([]models.Row, len(objs))
	for i, obj := range objs {
		rows[i] = models.Row(obj)
	}
	return &models.Dataset{ID: uuid.NewString(), Cols: cols, Rows: rows}, nil
}

// firstObjectKeys walks the token stream to recover the declaration order of
// the first object's keys, which map iteration would lose.
func firstObjectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // [
		return nil, err
	}
	tok, err := dec.Token() // {
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	depth := 0
	expectKey := true
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return keys, nil
				}
				depth--
				if depth == 0 {
					expectKey = true
				}
			}
			continue
		}
		if depth == 0 && expectKey {
			if k, ok := tok.(string); ok {
				keys = append(keys, k)
			}
			expectKey = false
			continue
		}
		if depth == 0 {
			expectKey = true
		}
	}
}
