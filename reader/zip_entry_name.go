package reader

import (
	"bufio"
	"io"

	"github.com/marketfeed/ingest/model"
)

// ZipEntryName reads a manifest stream of newline-separated zip entry names
// (one record per archive member to be resolved separately), and hands
// each name to parse as the raw record. Used when a zip_entry transport's
// locator is itself a manifest of which entries to subscribe to.
type ZipEntryName struct {
	scanner       *bufio.Scanner
	closer        io.Closer
	parse         ParseFunc
	onReaderError func(error)

	current model.BaseData
	err     error
}

func NewZipEntryName(source io.ReadCloser, parse ParseFunc, onReaderError func(error)) *ZipEntryName {
	return &ZipEntryName{scanner: bufio.NewScanner(source), closer: source, parse: parse, onReaderError: onReaderError}
}

func (z *ZipEntryName) MoveNext() bool {
	for z.scanner.Scan() {
		data, ok, err := z.parse(z.scanner.Bytes())
		if err != nil {
			if z.onReaderError != nil {
				z.onReaderError(err)
			}
			continue
		}
		if !ok {
			continue
		}
		z.current = data
		return true
	}
	if err := z.scanner.Err(); err != nil {
		z.err = err
	}
	return false
}

func (z *ZipEntryName) Current() model.BaseData { return z.current }
func (z *ZipEntryName) Err() error               { return z.err }
func (z *ZipEntryName) Close() error             { return z.closer.Close() }
