// Package reader turns annotated source files into sequences of raw records
// for the pipeline. The pipeline only needs each record's address plus
// whatever optional attributes the source carries; format details stay here.
package reader

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/curate-cli/internal/model"
)

// RawRecord is one source row before normalization. Address holds the raw
// line text; every other attribute is optional.
type RawRecord struct {
	Address     string
	Org         string
	Phone       string
	Country     string
	City        string
	Description string
	Keywords    string
	SourceURL   string
	Hint        model.ValidationHint
}

// RecordReader produces the raw records of one source file.
type RecordReader interface {
	Read(ctx context.Context) ([]RawRecord, error)
}

// ForFile picks a reader by file extension. Tabular formats carry headers;
// everything else is treated as a line-delimited address list.
func ForFile(path string) (RecordReader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &CSVReader{Path: path}, nil
	case ".xlsx":
		return &XLSXReader{Path: path}, nil
	case ".txt", ".list", "":
		return &LineReader{Path: path}, nil
	}
	return nil, eris.Errorf("reader: unsupported source format %q", filepath.Ext(path))
}

// columnIndex maps header names onto RawRecord attributes. Matching is
// case-insensitive and tolerant of common aliases.
type columnIndex struct {
	address     int
	org         int
	phone       int
	country     int
	city        int
	description int
	keywords    int
	sourceURL   int
	hint        int
}

func mapHeader(header []string) (columnIndex, error) {
	idx := columnIndex{address: -1, org: -1, phone: -1, country: -1, city: -1,
		description: -1, keywords: -1, sourceURL: -1, hint: -1}

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "address", "email", "e-mail", "mail":
			idx.address = i
		case "org", "organization", "organisation", "company", "name":
			idx.org = i
		case "phone", "tel", "telephone":
			idx.phone = i
		case "country":
			idx.country = i
		case "city", "town":
			idx.city = i
		case "description", "desc", "notes":
			idx.description = i
		case "keywords", "tags":
			idx.keywords = i
		case "source_url", "source", "url", "website":
			idx.sourceURL = i
		case "hint", "status", "validation", "verified":
			idx.hint = i
		}
	}

	if idx.address < 0 {
		return idx, eris.New("reader: no address column in header")
	}
	return idx, nil
}

func (c columnIndex) record(row []string) RawRecord {
	at := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return RawRecord{
		Address:     at(c.address),
		Org:         at(c.org),
		Phone:       at(c.phone),
		Country:     at(c.country),
		City:        at(c.city),
		Description: at(c.description),
		Keywords:    at(c.keywords),
		SourceURL:   at(c.sourceURL),
		Hint:        model.ParseHint(at(c.hint)),
	}
}
