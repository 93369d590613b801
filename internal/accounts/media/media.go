// Package media is the blob-upload collaborator. The accounts core only ever
// needs "store this file, give me back a public URL"; storage, transcoding
// and delivery are someone else's problem.
package media

import (
	"context"
	"io"
)

// File is a single uploaded file ready to be stored. Name is the original
// filename; only its extension survives into the object key.
type File struct {
	Name        string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Uploader stores one file under the given key and returns its public URL.
// Registration and the avatar/cover update operations each call this once per
// file; there is deliberately no multi-file batch operation.
type Uploader interface {
	Upload(ctx context.Context, key string, f File) (string, error)
}
