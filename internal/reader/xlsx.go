package reader

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXReader reads the first sheet of a spreadsheet export. The first row
// is the header.
type XLSXReader struct {
	Path      string
	SheetName string // if set, overrides the first sheet
}

func (x *XLSXReader) Read(ctx context.Context) ([]RawRecord, error) {
	f, err := xlsx.OpenFile(x.Path)
	if err != nil {
		return nil, eris.Wrap(err, "reader: open xlsx source")
	}

	sheet, err := x.sheet(f)
	if err != nil {
		return nil, err
	}

	var idx columnIndex
	var out []RawRecord
	for i, row := range sheet.Rows {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "reader: context cancelled")
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}

		if i == 0 {
			idx, err = mapHeader(cells)
			if err != nil {
				return nil, err
			}
			continue
		}

		rec := idx.record(cells)
		if rec.Address == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (x *XLSXReader) sheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if x.SheetName != "" {
		sheet, ok := f.Sheet[x.SheetName]
		if !ok {
			return nil, eris.Errorf("reader: sheet %q not found", x.SheetName)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("reader: xlsx file has no sheets")
	}
	return f.Sheets[0], nil
}
