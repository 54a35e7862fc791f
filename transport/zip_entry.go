package transport

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"github.com/marketfeed/ingest/model"
)

// ZipEntry opens one named entry inside a local zip archive. No ecosystem
// zip reader appears anywhere in the retrieved pack, so this uses stdlib
// archive/zip directly.
type ZipEntry struct{}

func NewZipEntry() ZipEntry { return ZipEntry{} }

func (ZipEntry) Open(_ context.Context, source model.SubscriptionDataSource) (io.ReadCloser, error) {
	archive, err := zip.OpenReader(source.Locator)
	if err != nil {
		return nil, err
	}

	for _, f := range archive.File {
		if f.Name == source.ZipEntryName {
			rc, err := f.Open()
			if err != nil {
				archive.Close()
				return nil, err
			}
			return &zipEntryReadCloser{ReadCloser: rc, archive: archive}, nil
		}
	}
	archive.Close()
	return nil, fmt.Errorf("zip_entry: %s not found in %s", source.ZipEntryName, source.Locator)
}

// zipEntryReadCloser closes both the entry reader and the parent archive
// handle so callers only need to Close() once.
type zipEntryReadCloser struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipEntryReadCloser) Close() error {
	err := z.ReadCloser.Close()
	if archErr := z.archive.Close(); err == nil {
		err = archErr
	}
	return err
}
