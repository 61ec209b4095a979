// Package backend opens the configured store.Document.
package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/mothmailer/mothmailer/store"
	"github.com/mothmailer/mothmailer/store/filedoc"
	"github.com/mothmailer/mothmailer/store/gcsdoc"
	"github.com/mothmailer/mothmailer/store/jsonbin"
	"github.com/mothmailer/mothmailer/store/s3doc"
	"github.com/mothmailer/mothmailer/store/sqlitedoc"
)

// Driver identifies a document backend.
type Driver string

const (
	DriverJSONBin Driver = "jsonbin"
	DriverFile    Driver = "file"
	DriverS3      Driver = "s3"
	DriverGCS     Driver = "gcs"
	DriverSQLite  Driver = "sqlite"
	DriverMemory  Driver = "memory" // not persisted, for trying things out
)

// Drivers lists the known drivers, for help text and validation.
var Drivers = []Driver{DriverJSONBin, DriverFile, DriverS3, DriverGCS, DriverSQLite, DriverMemory}

type Config struct {
	Driver Driver

	JSONBin jsonbin.Config
	S3      s3doc.Config
	GCS     gcsdoc.Config

	// Path is the file for the file and sqlite drivers
	Path string
	// Document is the row name within the sqlite database
	Document string
}

// Open returns the document for the configured driver. The returned
// closer is never nil.
func Open(ctx context.Context, cfg Config) (store.Document, io.Closer, error) {
	switch cfg.Driver {
	case DriverJSONBin:
		d, err := jsonbin.New(cfg.JSONBin)
		return d, nopCloser{}, err
	case DriverFile:
		d, err := filedoc.New(cfg.Path)
		return d, nopCloser{}, err
	case DriverS3:
		d, err := s3doc.New(ctx, cfg.S3)
		return d, nopCloser{}, err
	case DriverGCS:
		d, err := gcsdoc.New(ctx, cfg.GCS)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return d, d, nil
	case DriverSQLite:
		d, err := sqlitedoc.Open(ctx, cfg.Path, cfg.Document)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return d, d, nil
	case DriverMemory:
		return store.NewMemoryDocument(""), nopCloser{}, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("unknown store driver %q (expected one of %v)", cfg.Driver, Drivers)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
