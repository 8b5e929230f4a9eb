package reader

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// LineReader reads a plain line-delimited address list. Blank lines and
// `#` comment lines are skipped.
type LineReader struct {
	Path string
}

func (l *LineReader) Read(ctx context.Context) ([]RawRecord, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, eris.Wrap(err, "reader: open line source")
	}
	defer f.Close()

	var out []RawRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "reader: context cancelled")
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, RawRecord{Address: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "reader: scan line source")
	}
	return out, nil
}
