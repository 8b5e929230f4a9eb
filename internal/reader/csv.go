package reader

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// CSVReader reads a comma-separated export with a header row.
type CSVReader struct {
	Path      string
	Delimiter rune // default ','
}

func (c *CSVReader) Read(ctx context.Context) ([]RawRecord, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, eris.Wrap(err, "reader: open csv source")
	}
	defer f.Close()

	r := csv.NewReader(f)
	if c.Delimiter != 0 {
		r.Comma = c.Delimiter
	}
	r.FieldsPerRecord = -1 // allow variable fields

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "reader: read csv header")
	}
	idx, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var out []RawRecord
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "reader: context cancelled")
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "reader: read csv row")
		}
		rec := idx.record(row)
		if rec.Address == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
