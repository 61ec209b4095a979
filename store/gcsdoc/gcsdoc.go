// Package gcsdoc stores the sent-records document as one object in a
// Google Cloud Storage bucket.
package gcsdoc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/mothmailer/mothmailer/store"
)

const DefaultObject = "mothmailer/sent.json"

type Config struct {
	Bucket string
	Object string
	// CredentialsFile is a service account key; empty uses the
	// application default credentials.
	CredentialsFile string
}

// objectAPI is the part of a storage.ObjectHandle the document uses.
type objectAPI interface {
	NewReader(ctx context.Context) (io.ReadCloser, error)
	NewWriter(ctx context.Context) io.WriteCloser
}

type handle struct {
	h *storage.ObjectHandle
}

func (o handle) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return o.h.NewReader(ctx)
}

func (o handle) NewWriter(ctx context.Context) io.WriteCloser {
	w := o.h.NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-cache, no-store, must-revalidate"
	return w
}

type Object struct {
	client *storage.Client
	obj    objectAPI
	bucket string
	name   string
}

func New(ctx context.Context, cfg Config) (*Object, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcsdoc: bucket required")
	}
	if cfg.Object == "" {
		cfg.Object = DefaultObject
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	o := newObject(handle{client.Bucket(cfg.Bucket).Object(cfg.Object)}, cfg.Bucket, cfg.Object)
	o.client = client
	return o, nil
}

func newObject(obj objectAPI, bucket, name string) *Object {
	return &Object{obj: obj, bucket: bucket, name: name}
}

func (o *Object) Name() string {
	return "gs://" + o.bucket + "/" + o.name
}

func (o *Object) Read(ctx context.Context) ([]byte, error) {
	r, err := o.obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (o *Object) Replace(ctx context.Context, b []byte) error {
	w := o.obj.NewWriter(ctx)

	if _, err := w.Write(b); err != nil {
		w.Close()
		return fmt.Errorf("failed to write GCS object %s: %w", o.name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", o.name, err)
	}
	return nil
}

func (o *Object) Close() error {
	if o.client == nil {
		return nil
	}
	return o.client.Close()
}
