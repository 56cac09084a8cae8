package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	afsurl "github.com/viant/afs/url"

	"github.com/tbxark/formchat/agent"
)

// Blob stores each value as one object under a base afs URL, such as
// file:///var/lib/formchat, mem://localhost/formchat or s3://bucket/prefix.
type Blob struct {
	fs   afs.Service
	base string
}

var _ agent.Cache[[]byte] = (*Blob)(nil)

func NewBlob(base string) *Blob {
	return &Blob{fs: afs.New(), base: strings.TrimRight(base, "/")}
}

// location maps a key to an object name that is safe on every afs backend.
func (b *Blob) location(key string) string {
	return afsurl.Join(b.base, base64.RawURLEncoding.EncodeToString([]byte(key))+".json")
}

// Set writes val to a temporary sibling and moves it over the object, so a
// reader sees either the previous value or the new one in full.
func (b *Blob) Set(ctx context.Context, key string, val []byte) error {
	loc := b.location(key)
	tmp := loc + ".tmp-" + uuid.NewString()
	if err := b.fs.Upload(ctx, tmp, file.DefaultFileOsMode, bytes.NewReader(val)); err != nil {
		return fmt.Errorf("blob set %q: %w", key, err)
	}
	if err := b.fs.Move(ctx, tmp, loc); err != nil {
		_ = b.fs.Delete(ctx, tmp)
		return fmt.Errorf("blob set %q: %w", key, err)
	}
	return nil
}

func (b *Blob) Get(ctx context.Context, key string) ([]byte, bool, error) {
	loc := b.location(key)
	ok, err := b.fs.Exists(ctx, loc)
	if err != nil {
		return nil, false, fmt.Errorf("blob get %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	data, err := b.fs.DownloadWithURL(ctx, loc)
	if err != nil {
		return nil, false, fmt.Errorf("blob get %q: %w", key, err)
	}
	return data, true, nil
}

func (b *Blob) Del(ctx context.Context, key string) error {
	loc := b.location(key)
	ok, err := b.fs.Exists(ctx, loc)
	if err != nil || !ok {
		return err
	}
	if err := b.fs.Delete(ctx, loc); err != nil {
		return fmt.Errorf("blob del %q: %w", key, err)
	}
	return nil
}

func (b *Blob) Exists(ctx context.Context, key string) (bool, error) {
	return b.fs.Exists(ctx, b.location(key))
}
