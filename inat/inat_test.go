package inat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mothmailer/mothmailer/record"
)

const samplePage = `{
  "total_results": 3,
  "page": 1,
  "per_page": 200,
  "results": [
    {
      "id": 103,
      "faves_count": 2,
      "place_guess": " Ithaca, NY ",
      "observed_on": "2024-07-01",
      "user": {"login": "mothfan"},
      "taxon": {"id": 81582, "name": "Actias luna", "preferred_common_name": "Luna Moth", "observations_count": 5400},
      "photos": [{"id": 1, "url": "https://static.inaturalist.org/photos/1/square.jpg", "attribution": "(c) mothfan, some rights reserved (CC BY)"}]
    },
    {
      "id": 104,
      "taxon": {"id": 5, "name": "Noctuidae sp."},
      "photos": [{"id": 2, "url": "https://static.inaturalist.org/photos/2/medium.jpg"}]
    },
    {
      "id": 105,
      "taxon": {"id": 6, "name": "No photo", "preferred_common_name": "Ghost"},
      "photos": []
    }
  ]
}`

func TestSample(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/observations", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	cl := New(Config{BaseURL: srv.URL, WithoutTaxonID: DefaultWithoutTaxonID, HTTPClient: srv.Client()})

	recs, err := cl.Sample(context.Background(), record.NewIDSet("101", "102", "legacy-x"), SampleOptions{})
	require.NoError(t, err)

	assert.Equal(t, "47157", gotQuery["taxon_id"])
	assert.Equal(t, "47224", gotQuery["without_taxon_id"])
	assert.Equal(t, "research", gotQuery["quality_grade"])
	assert.Equal(t, "true", gotQuery["photos"])
	assert.Equal(t, "true", gotQuery["photo_licensed"])
	assert.Equal(t, "200", gotQuery["per_page"])
	assert.Equal(t, "random", gotQuery["order_by"])
	assert.Equal(t, "101,102", gotQuery["not_id"])
	_, popular := gotQuery["popular"]
	assert.False(t, popular)

	require.Len(t, recs, 3)

	luna := recs[0]
	assert.Equal(t, record.ID("103"), luna.ID)
	assert.Equal(t, "Luna Moth", luna.CommonName)
	assert.Equal(t, "Actias luna", luna.ScientificName)
	assert.Equal(t, int64(81582), luna.TaxonID)
	assert.Equal(t, "Ithaca, NY", luna.Place)
	assert.Equal(t, "mothfan", luna.Observer)
	assert.Equal(t, 2, luna.FavoriteCount)
	assert.Equal(t, 5400, luna.ObservationCount)
	assert.Equal(t, "https://static.inaturalist.org/photos/1/large.jpg", luna.PhotoURL)
	assert.Equal(t, "https://www.inaturalist.org/observations/103", luna.ObservationURL)

	assert.Equal(t, "", recs[1].DisplayName())
	assert.Equal(t, "https://static.inaturalist.org/photos/2/large.jpg", recs[1].PhotoURL)

	assert.Equal(t, record.ID("105"), recs[2].ID)
	assert.Empty(t, recs[2].PhotoURL, "photo-less observations are returned for the selector to filter")
}

func TestSampleQueryOptions(t *testing.T) {
	cl := New(Config{MaxExcludeIDs: 2})

	q := cl.sampleQuery(record.NewIDSet("5", "40", "300"), SampleOptions{MinFavoriteCount: 1})
	assert.Equal(t, "true", q.Get("popular"))
	assert.Equal(t, "40,300", q.Get("not_id"))
	assert.Equal(t, "", q.Get("without_taxon_id"))

	q = cl.sampleQuery(record.NewIDSet(), SampleOptions{})
	assert.Equal(t, "", q.Get("not_id"))

	// non-numeric ids sort last and must not take the capped slots
	q = cl.sampleQuery(record.NewIDSet("5", "40", "300", "legacy-a", "legacy-b"), SampleOptions{})
	assert.Equal(t, "40,300", q.Get("not_id"))
}

func TestSampleErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   int
	}{
		{"server error", http.StatusBadGateway, "upstream down", http.StatusBadGateway},
		{"rate limited", http.StatusTooManyRequests, `{"error":"slow down"}`, http.StatusTooManyRequests},
		{"malformed body", http.StatusOK, `{"results": [`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			cl := New(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})
			recs, err := cl.Sample(context.Background(), nil, SampleOptions{})
			require.Error(t, err)
			assert.Nil(t, recs)

			var serr *SourceError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.code, serr.StatusCode)
			assert.Equal(t, "sample", serr.Op)
		})
	}
}

func TestFamily(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/taxa/81582":
			fmt.Fprint(w, `{"results":[{"id":81582,"name":"Actias luna","rank":"species","ancestors":[
				{"id":1,"name":"Animalia","rank":"kingdom"},
				{"id":47157,"name":"Lepidoptera","rank":"order","preferred_common_name":"Butterflies and Moths"},
				{"id":47229,"name":"Saturniidae","rank":"family","preferred_common_name":"Giant Silkmoths"},
				{"id":9,"name":"Fakeidae","rank":"family"}
			]}]}`)
		case "/taxa/2":
			fmt.Fprint(w, `{"results":[{"id":2,"name":"Obscura","ancestors":[{"id":3,"name":"Geometridae","rank":"family"}]}]}`)
		case "/taxa/3":
			fmt.Fprint(w, `{"results":[{"id":3,"name":"Lepidoptera","ancestors":[{"id":1,"name":"Animalia","rank":"kingdom"}]}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	cl := New(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	fam, err := cl.Family(ctx, 81582)
	require.NoError(t, err)
	assert.Equal(t, "Saturniidae — Giant Silkmoths", fam)

	// cached
	_, err = cl.Family(ctx, 81582)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	fam, err = cl.Family(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Geometridae", fam)

	fam, err = cl.Family(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "", fam)

	_, err = cl.Family(ctx, 404)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "404"))
}

func TestDecorate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/taxa/1" {
			fmt.Fprint(w, `{"results":[{"id":1,"ancestors":[{"name":"Erebidae","rank":"family","preferred_common_name":"Erebid Moths"}]}]}`)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx := context.Background()
	cl := New(Config{BaseURL: srv.URL, HTTPClient: srv.Client()})

	r := record.Record{ID: "1", TaxonID: 1}
	cl.Decorate(ctx, &r)
	assert.Equal(t, "Erebidae — Erebid Moths", r.Family)

	failing := record.Record{ID: "2", TaxonID: 2}
	cl.Decorate(ctx, &failing)
	assert.Equal(t, "", failing.Family)

	none := record.Record{ID: "3"}
	cl.Decorate(ctx, &none)
	assert.Equal(t, "", none.Family)
}
