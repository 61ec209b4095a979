package inat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mothmailer/mothmailer/httpclient"
	"github.com/mothmailer/mothmailer/record"
)

const (
	DefaultBaseURL = "https://api.inaturalist.org/v1"
	observationURL = "https://www.inaturalist.org/observations/"

	// Lepidoptera, without the butterflies (Papilionoidea)
	DefaultTaxonID        = 47157
	DefaultWithoutTaxonID = 47224

	DefaultPerPage       = 200
	DefaultMaxExcludeIDs = 200

	familyRank = "family"
)

// Config is the fixed search filter and the API endpoint.
type Config struct {
	BaseURL        string
	TaxonID        int64
	WithoutTaxonID int64
	QualityGrade   string
	PerPage        int

	// MaxExcludeIDs caps how many known ids are sent as not_id; the
	// rest are filtered by the caller. Negative disables not_id.
	MaxExcludeIDs int

	HTTPClient *http.Client
}

// SampleOptions are the per-call parameters.
type SampleOptions struct {
	MinFavoriteCount int
}

// Client talks to the iNaturalist API.
type Client struct {
	cfg  Config
	http *http.Client

	familyLock sync.Mutex
	families   map[int64]string
}

// New returns a client; zero Config fields get the defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.TaxonID == 0 {
		cfg.TaxonID = DefaultTaxonID
	}
	if cfg.QualityGrade == "" {
		cfg.QualityGrade = "research"
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.MaxExcludeIDs == 0 {
		cfg.MaxExcludeIDs = DefaultMaxExcludeIDs
	}
	cl := cfg.HTTPClient
	if cl == nil {
		cl = httpclient.New(0)
	}
	return &Client{
		cfg:      cfg,
		http:     cl,
		families: map[int64]string{},
	}
}

// Sample fetches one random page of observations.
func (c *Client) Sample(ctx context.Context, exclude record.IDSet, opts SampleOptions) ([]record.Record, error) {
	ctx, span := tracing.Start(ctx, "inat.Sample")
	defer span.End()

	log := logger.FromContext(ctx)

	q := c.sampleQuery(exclude, opts)
	u := c.cfg.BaseURL + "/observations?" + q.Encode()

	var resp observationsResponse
	err := c.get(ctx, "sample", u, &resp)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := make([]record.Record, 0, len(resp.Results))
	for _, obs := range resp.Results {
		r, ok := obs.record()
		if !ok {
			continue
		}
		records = append(records, r)
	}

	span.SetAttributes(
		attribute.Int("results", len(resp.Results)),
		attribute.Int("records", len(records)),
	)
	log.DebugContext(ctx, "sampled observations",
		"results", len(resp.Results),
		"records", len(records),
		"total", resp.TotalResults,
	)

	return records, nil
}

func (c *Client) sampleQuery(exclude record.IDSet, opts SampleOptions) url.Values {
	q := url.Values{}
	q.Set("taxon_id", strconv.FormatInt(c.cfg.TaxonID, 10))
	if c.cfg.WithoutTaxonID > 0 {
		q.Set("without_taxon_id", strconv.FormatInt(c.cfg.WithoutTaxonID, 10))
	}
	q.Set("quality_grade", c.cfg.QualityGrade)
	q.Set("photos", "true")
	q.Set("photo_licensed", "true")
	q.Set("per_page", strconv.Itoa(c.cfg.PerPage))
	q.Set("order_by", "random")
	if opts.MinFavoriteCount > 0 {
		q.Set("popular", "true")
	}

	if c.cfg.MaxExcludeIDs > 0 && exclude.Len() > 0 {
		notIDs := make([]string, 0, exclude.Len())
		for _, id := range exclude.Sorted() {
			if id.IsNumeric() {
				notIDs = append(notIDs, id.String())
			}
		}
		// newest observations have the highest ids
		if len(notIDs) > c.cfg.MaxExcludeIDs {
			notIDs = notIDs[len(notIDs)-c.cfg.MaxExcludeIDs:]
		}
		if len(notIDs) > 0 {
			q.Set("not_id", strings.Join(notIDs, ","))
		}
	}
	return q
}

// Family returns the family of the taxon as "Scientific — Common" (or
// just the scientific name), or "" if the ancestor chain has none.
func (c *Client) Family(ctx context.Context, taxonID int64) (string, error) {
	c.familyLock.Lock()
	family, ok := c.families[taxonID]
	c.familyLock.Unlock()
	if ok {
		return family, nil
	}

	ctx, span := tracing.Start(ctx, "inat.Family")
	defer span.End()
	span.SetAttributes(attribute.Int64("taxon_id", taxonID))

	u := fmt.Sprintf("%s/taxa/%d", c.cfg.BaseURL, taxonID)

	var resp taxaResponse
	err := c.get(ctx, "taxon", u, &resp)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if len(resp.Results) > 0 {
		family = resp.Results[0].family()
	}

	c.familyLock.Lock()
	c.families[taxonID] = family
	c.familyLock.Unlock()

	return family, nil
}

// Decorate fills in the family label of the record. Failures are
// logged; the family is optional.
func (c *Client) Decorate(ctx context.Context, r *record.Record) {
	if r.TaxonID == 0 || r.Family != "" {
		return
	}
	family, err := c.Family(ctx, r.TaxonID)
	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "family lookup failed", "taxon_id", r.TaxonID, "err", err)
		return
	}
	r.Family = family
}

func (c *Client) get(ctx context.Context, op, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return &SourceError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &SourceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &SourceError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	dec := json.NewDecoder(resp.Body)
	err = dec.Decode(v)
	if err != nil {
		return &SourceError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
