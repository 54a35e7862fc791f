package transport

import (
	"context"
	"io"
	"os"

	"github.com/marketfeed/ingest/model"
)

// LocalFile opens sources whose Locator is a path on local disk, grounded
// on the teacher's plain os.Open in NewCSVFeed.
type LocalFile struct{}

func NewLocalFile() LocalFile { return LocalFile{} }

func (LocalFile) Open(_ context.Context, source model.SubscriptionDataSource) (io.ReadCloser, error) {
	return os.Open(source.Locator)
}
