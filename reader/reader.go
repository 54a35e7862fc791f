// Package reader turns the byte stream a transport.Transport opens into
// model.BaseData values. A Reader never does I/O itself — transport
// already gave it an io.Reader — it only knows how to split that stream
// into the parser's the unit of work (a line, a decoded collection, an
// entry name) and invoke the caller-supplied parse function.
package reader

import "github.com/marketfeed/ingest/model"

// ParseFunc converts one raw record (one line, one decoded element, one
// entry name) into a BaseData. ok=false means "skip this record" (e.g. a
// comment line or header); err is a reader_error: the readers in this
// package pass it to their onReaderError callback, skip the record and keep
// reading.
type ParseFunc func(record []byte) (data model.BaseData, ok bool, err error)

// Reader yields BaseData values lazily: MoveNext advances one record,
// Current returns the record last produced, Err reports a terminal error.
// This is the explicit iterator shape the spec's Design Notes call for in
// place of a LINQ-style generator.
type Reader interface {
	MoveNext() bool
	Current() model.BaseData
	Err() error
	Close() error
}
