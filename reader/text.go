package reader

import (
	"bufio"
	"io"

	"github.com/marketfeed/ingest/model"
)

// Text reads one BaseData per line, grounded on the teacher's line-by-line
// CSV parse loop in NewCSVFeed (strconv.ParseFloat per field, one candle
// per line).
type Text struct {
	scanner       *bufio.Scanner
	closer        io.Closer
	parse         ParseFunc
	onReaderError func(error)

	current model.BaseData
	err     error
}

// NewText reads one BaseData per line. A record that fails to parse is a
// reader_error, not a fatal stream error: onReaderError (may be nil) is
// called and the bad line is skipped, so one malformed record never aborts
// the rest of the day's data.
func NewText(source io.ReadCloser, parse ParseFunc, onReaderError func(error)) *Text {
	return &Text{
		scanner:       bufio.NewScanner(source),
		closer:        source,
		parse:         parse,
		onReaderError: onReaderError,
	}
}

func (t *Text) MoveNext() bool {
	for t.scanner.Scan() {
		data, ok, err := t.parse(t.scanner.Bytes())
		if err != nil {
			if t.onReaderError != nil {
				t.onReaderError(err)
			}
			continue
		}
		if !ok {
			continue
		}
		t.current = data
		return true
	}
	if err := t.scanner.Err(); err != nil {
		t.err = err
	}
	return false
}

func (t *Text) Current() model.BaseData { return t.current }
func (t *Text) Err() error               { return t.err }
func (t *Text) Close() error             { return t.closer.Close() }
