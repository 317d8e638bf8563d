// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fetch mirrors benchmark logs from a Cloud Storage bucket
// into a local directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultPattern matches the log files worth fetching.
const DefaultPattern = "*.jsonl"

// An Object is one remote file.
type Object struct {
	Name string // full object name
	Size int64
}

// A Source lists and opens remote objects.
type Source interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Options configures Sync.
type Options struct {
	Bucket  string
	Prefix  string // object name prefix; "" mirrors the whole bucket
	Dir     string // local destination
	Pattern string // base name pattern; defaults to DefaultPattern

	// ClientOptions are passed to storage.NewClient. If empty, Sync
	// uses the default Google credentials with read-only scope.
	ClientOptions []option.ClientOption

	// Warn, if non-nil, is called for objects that are skipped
	// because their names cannot be mirrored safely.
	Warn func(format string, args ...interface{})
}

// A Result summarizes a Sync.
type Result struct {
	Copied  []string // local paths written
	Skipped int      // objects already present with the same size
}

// Sync copies every object under gs://opts.Bucket/opts.Prefix whose
// base name matches opts.Pattern into opts.Dir, keeping paths
// relative to the prefix. Objects whose local copy already has the
// same size are not fetched again.
func Sync(ctx context.Context, opts Options) (*Result, error) {
	if opts.Bucket == "" {
		return nil, errors.New("fetch: no bucket")
	}
	copts := opts.ClientOptions
	if len(copts) == 0 {
		ts, err := google.DefaultTokenSource(ctx, storage.ScopeReadOnly)
		if err != nil {
			return nil, fmt.Errorf("fetch: credentials: %w", err)
		}
		copts = []option.ClientOption{option.WithTokenSource(ts)}
	}
	client, err := storage.NewClient(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer client.Close()
	return SyncFrom(ctx, &gcsSource{client.Bucket(opts.Bucket)}, opts)
}

// SyncFrom is like Sync but reads from src instead of Cloud Storage.
func SyncFrom(ctx context.Context, src Source, opts Options) (*Result, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("fetch: bad pattern %q: %w", pattern, err)
	}
	warn := opts.Warn
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}

	objs, err := src.List(ctx, opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("fetch: listing %s: %w", opts.Prefix, err)
	}
	res := new(Result)
	for _, obj := range objs {
		if ok, _ := path.Match(pattern, path.Base(obj.Name)); !ok {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(obj.Name, opts.Prefix), "/")
		if rel == "" || !filepath.IsLocal(filepath.FromSlash(rel)) {
			warn("skipping object %q: not a local path", obj.Name)
			continue
		}
		dst := filepath.Join(opts.Dir, filepath.FromSlash(rel))
		if fi, err := os.Stat(dst); err == nil && fi.Mode().IsRegular() && fi.Size() == obj.Size {
			res.Skipped++
			continue
		}
		if err := copyObject(ctx, src, obj.Name, dst); err != nil {
			return res, fmt.Errorf("fetch: %s: %w", obj.Name, err)
		}
		res.Copied = append(res.Copied, dst)
	}
	return res, nil
}

// copyObject writes object name to dst through a temporary file in
// the same directory.
func copyObject(ctx context.Context, src Source, name, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
		return err
	}
	r, err := src.Open(ctx, name)
	if err != nil {
		return err
	}
	defer r.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".fetch-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

type gcsSource struct {
	b *storage.BucketHandle
}

func (s *gcsSource) List(ctx context.Context, prefix string) ([]Object, error) {
	var objs []Object
	it := s.b.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if attrs.Name == "" || strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		objs = append(objs, Object{Name: attrs.Name, Size: attrs.Size})
	}
	return objs, nil
}

func (s *gcsSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.b.Object(name).NewReader(ctx)
}
