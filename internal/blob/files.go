package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Files adapts a Store to whole-file reads and writes, the shape the catalog
// override loader and the workspace expect. Names are joined under an
// optional key prefix.
type Files struct {
	store       Store
	prefix      string
	contentType string
}

// FilesOption configures Files.
type FilesOption func(*Files)

// WithPrefix places every name under prefix.
func WithPrefix(prefix string) FilesOption {
	return func(f *Files) { f.prefix = strings.Trim(prefix, "/") }
}

// WithContentType sets the content type recorded on writes.
func WithContentType(ct string) FilesOption {
	return func(f *Files) { f.contentType = ct }
}

// NewFiles wraps store.
func NewFiles(store Store, opts ...FilesOption) *Files {
	f := &Files{store: store}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Key returns the store key name maps to.
func (f *Files) Key(name string) string {
	if f.prefix == "" {
		return name
	}
	return path.Join(f.prefix, name)
}

// ReadFile returns the full content stored under name. Missing names yield an
// error matching ErrNotFound and fs.ErrNotExist.
func (f *Files) ReadFile(ctx context.Context, name string) ([]byte, error) {
	_, rc, err := f.store.Get(ctx, f.Key(name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// WriteFile stores data under name, replacing previous content.
func (f *Files) WriteFile(ctx context.Context, name string, data []byte) error {
	if _, err := f.store.Put(ctx, f.Key(name), bytes.NewReader(data), PutOptions{ContentType: f.contentType}); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// List returns the names under the prefix, relative to it.
func (f *Files) List(ctx context.Context) ([]string, error) {
	var scope string
	if f.prefix != "" {
		scope = f.prefix + "/"
	}
	infos, err := f.store.List(ctx, scope)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, strings.TrimPrefix(info.Key, scope))
	}
	return names, nil
}
