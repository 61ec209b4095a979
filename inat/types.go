package inat

import (
	"strings"

	"github.com/mothmailer/mothmailer/record"
)

type observationsResponse struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Results      []observation `json:"results"`
}

type observation struct {
	ID         record.ID `json:"id"`
	FavesCount int       `json:"faves_count"`
	PlaceGuess string    `json:"place_guess"`
	ObservedOn string    `json:"observed_on"`
	User       struct {
		Login string `json:"login"`
	} `json:"user"`
	Taxon  *taxon  `json:"taxon"`
	Photos []photo `json:"photos"`
}

type photo struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

type taxon struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Rank                string  `json:"rank"`
	PreferredCommonName string  `json:"preferred_common_name"`
	ObservationsCount   int     `json:"observations_count"`
	Ancestors           []taxon `json:"ancestors"`
}

type taxaResponse struct {
	Results []taxon `json:"results"`
}

// record converts the observation; observations without an id are
// skipped. An observation without a usable photo keeps an empty
// PhotoURL and is left for the selector to filter.
func (o observation) record() (record.Record, bool) {
	if o.ID == "" {
		return record.Record{}, false
	}
	var p photo
	if len(o.Photos) > 0 {
		p = o.Photos[0]
	}

	r := record.Record{
		ID:             o.ID,
		Place:          strings.TrimSpace(o.PlaceGuess),
		Observer:       o.User.Login,
		ObservedOn:     o.ObservedOn,
		ObservationURL: observationURL + o.ID.String(),
		PhotoURL:       LargePhotoURL(strings.TrimSpace(p.URL)),
		Attribution:    p.Attribution,
		FavoriteCount:  o.FavesCount,
	}
	if o.Taxon != nil {
		r.TaxonID = o.Taxon.ID
		r.CommonName = strings.TrimSpace(o.Taxon.PreferredCommonName)
		r.ScientificName = o.Taxon.Name
		r.ObservationCount = o.Taxon.ObservationsCount
	}
	return r, true
}

func (t taxon) family() string {
	for _, a := range t.Ancestors {
		if a.Rank != familyRank {
			continue
		}
		if a.PreferredCommonName != "" {
			return a.Name + " — " + a.PreferredCommonName
		}
		return a.Name
	}
	return ""
}
