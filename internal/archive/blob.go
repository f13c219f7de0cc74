// Package archive writes completed sessions to blob storage for retention
// beyond the hot store. Archiving is best effort and runs off the webhook
// path; failures are logged, never surfaced to the sender.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/convoflow/engine/pkg/api"
)

// Archiver stores completed sessions as JSON blobs via gocloud.dev/blob,
// supporting S3, GCS, Azure Blob Storage, and local directories
type Archiver struct {
	bucket *blob.Bucket
	prefix string
}

var ErrArchiveNotFound = errors.New("archived session not found")

// New opens the bucket at bucketURL and returns an archiver writing under
// the given key prefix
func New(ctx context.Context, bucketURL, prefix string) (*Archiver, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return NewWithBucket(bucket, prefix), nil
}

// NewWithBucket wraps an already-open bucket
func NewWithBucket(bucket *blob.Bucket, prefix string) *Archiver {
	return &Archiver{bucket: bucket, prefix: prefix}
}

// Put writes a session to the archive, replacing any previous copy
func (a *Archiver) Put(ctx context.Context, sess *api.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return a.bucket.WriteAll(ctx, a.keyFor(sess.ID), data, nil)
}

// Get reads a session back from the archive
func (a *Archiver) Get(
	ctx context.Context, id api.SessionID,
) (*api.Session, error) {
	data, err := a.bucket.ReadAll(ctx, a.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, id)
		}
		return nil, err
	}

	var sess api.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Close releases the underlying bucket
func (a *Archiver) Close() error {
	return a.bucket.Close()
}

func (a *Archiver) keyFor(id api.SessionID) string {
	return fmt.Sprintf("%ssessions/%s.json", a.prefix, id)
}
