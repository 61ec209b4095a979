// Package jsonbin stores the sent-records document in a JSONBin.io bin.
package jsonbin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"

	"github.com/mothmailer/mothmailer/httpclient"
	"github.com/mothmailer/mothmailer/store"
)

const DefaultBaseURL = "https://api.jsonbin.io/v3"

// maxDocument bounds how much of a bin is read.
const maxDocument = 16 << 20

type Config struct {
	BaseURL   string
	BinID     string
	MasterKey string
	// AccessKey is used instead of the master key when set
	AccessKey string

	HTTPClient *http.Client
}

type Bin struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) (*Bin, error) {
	if cfg.BinID == "" {
		return nil, errors.New("jsonbin: bin id required")
	}
	if cfg.MasterKey == "" && cfg.AccessKey == "" {
		return nil, errors.New("jsonbin: master key or access key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	cl := cfg.HTTPClient
	if cl == nil {
		cl = httpclient.New(0)
	}
	return &Bin{cfg: cfg, http: cl}, nil
}

func (b *Bin) Name() string {
	return "jsonbin:" + b.cfg.BinID
}

func (b *Bin) Read(ctx context.Context) ([]byte, error) {
	ctx, span := tracing.Start(ctx, "jsonbin.Read")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, "GET", b.binURL()+"/latest", nil)
	if err != nil {
		return nil, err
	}
	b.authorize(req)
	// return the record without the metadata wrapper
	req.Header.Set("X-Bin-Meta", "false")

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, store.ErrNotFound
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocument))
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).DebugContext(ctx, "read bin", "bin", b.cfg.BinID, "length", len(body))
	return body, nil
}

func (b *Bin) Replace(ctx context.Context, doc []byte) error {
	ctx, span := tracing.Start(ctx, "jsonbin.Replace")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, "PUT", b.binURL(), bytes.NewReader(doc))
	if err != nil {
		return err
	}
	b.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.FromContext(ctx).DebugContext(ctx, "replaced bin", "bin", b.cfg.BinID, "length", len(doc))
	return nil
}

func (b *Bin) binURL() string {
	return b.cfg.BaseURL + "/b/" + b.cfg.BinID
}

func (b *Bin) authorize(req *http.Request) {
	if b.cfg.AccessKey != "" {
		req.Header.Set("X-Access-Key", b.cfg.AccessKey)
		return
	}
	req.Header.Set("X-Master-Key", b.cfg.MasterKey)
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("unexpected response code: %d (%s)", resp.StatusCode, strings.TrimSpace(string(body)))
}
