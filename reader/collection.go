package reader

import (
	"io"

	"github.com/marketfeed/ingest/model"
)

// CollectionParseFunc decodes the entire stream into a caller-defined
// collection (e.g. a JSON array), returning one raw record per element for
// ParseFunc to turn into BaseData. Used for sources whose wire format isn't
// line-oriented (JSON arrays, Parquet row groups flattened upstream, etc).
type CollectionParseFunc func(source io.Reader) ([][]byte, error)

// Collection decodes the whole stream up front via decode, then yields one
// BaseData per decoded record through parse. Grounded on the teacher's
// aggregate-then-iterate shape in NewCSVFeed, which reads csv.ReadAll
// before converting lines to candles one at a time.
type Collection struct {
	closer        io.Closer
	parse         ParseFunc
	onReaderError func(error)
	records       [][]byte
	pos           int

	current model.BaseData
	err     error
}

// NewCollection decodes the whole stream up front — a failure there is a
// source-level error, not a per-record one, so it still sets err. Once
// decoded, a record that fails to parse is a reader_error: onReaderError
// (may be nil) is called and the record is skipped.
func NewCollection(source io.ReadCloser, decode CollectionParseFunc, parse ParseFunc, onReaderError func(error)) *Collection {
	c := &Collection{closer: source, parse: parse, onReaderError: onReaderError}
	records, err := decode(source)
	if err != nil {
		c.err = err
		return c
	}
	c.records = records
	return c
}

func (c *Collection) MoveNext() bool {
	if c.err != nil {
		return false
	}
	for c.pos < len(c.records) {
		record := c.records[c.pos]
		c.pos++
		data, ok, err := c.parse(record)
		if err != nil {
			if c.onReaderError != nil {
				c.onReaderError(err)
			}
			continue
		}
		if !ok {
			continue
		}
		c.current = data
		return true
	}
	return false
}

func (c *Collection) Current() model.BaseData { return c.current }
func (c *Collection) Err() error               { return c.err }
func (c *Collection) Close() error             { return c.closer.Close() }
