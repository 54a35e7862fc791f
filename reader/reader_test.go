package reader

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketfeed/ingest/model"
)

func parseLine(record []byte) (model.BaseData, bool, error) {
	line := string(record)
	if line == "" {
		return model.BaseData{}, false, nil
	}
	parts := strings.Split(line, ",")
	sec, err := strconv.Atoi(parts[0])
	if err != nil {
		return model.BaseData{}, false, err
	}
	price, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.BaseData{}, false, err
	}
	return model.BaseData{
		Time: time.Unix(int64(sec), 0).UTC(),
		Kind: model.DataKindTick,
		Tick: model.Tick{Price: price},
	}, true, nil
}

func TestTextReaderYieldsOnePerLine(t *testing.T) {
	source := io.NopCloser(strings.NewReader("1,10.5\n2,11.0\n"))
	r := NewText(source, parseLine, nil)

	var got []float64
	for r.MoveNext() {
		got = append(got, r.Current().Tick.Price)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []float64{10.5, 11.0}, got)
}

// TestTextReaderSkipsRecordThatFailsToParse covers the reader_error half of
// §7's error taxonomy: a single malformed record is non-fatal, reported
// through onReaderError and skipped, while the rest of the stream is still
// delivered.
func TestTextReaderSkipsRecordThatFailsToParse(t *testing.T) {
	source := io.NopCloser(strings.NewReader("not-a-number,1\n2,11.0\n"))
	var faults []error
	r := NewText(source, parseLine, func(err error) { faults = append(faults, err) })

	var got []float64
	for r.MoveNext() {
		got = append(got, r.Current().Tick.Price)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []float64{11.0}, got)
	require.Len(t, faults, 1)
}

func TestCollectionReaderDecodesUpFront(t *testing.T) {
	decode := func(src io.Reader) ([][]byte, error) {
		raw, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}
		return bytes.Split(bytes.TrimSpace(raw), []byte(";")), nil
	}
	source := io.NopCloser(strings.NewReader("1,10.5;2,11.0"))
	r := NewCollection(source, decode, parseLine, nil)

	var count int
	for r.MoveNext() {
		count++
	}
	require.NoError(t, r.Err())
	assert.Equal(t, 2, count)
}
