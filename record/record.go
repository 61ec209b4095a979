// Package record holds the observation model shared by the candidate
// source, the selector and the record store.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ID is an opaque observation identifier. iNaturalist uses integers
// but older documents in the store also carry them as strings.
type ID string

// IsNumeric reports if the id is a plain decimal number
func (id ID) IsNumeric() bool {
	if len(id) == 0 || (len(id) > 1 && id[0] == '0') {
		return false
	}
	_, err := strconv.ParseUint(string(id), 10, 64)
	return err == nil
}

func (id ID) String() string {
	return string(id)
}

// MarshalJSON encodes numeric ids as JSON numbers so documents keep
// the shape earlier runs wrote.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsNumeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	norm, err := integerID(n)
	if err != nil {
		return err
	}
	*id = norm
	return nil
}

// integerID normalizes a JSON number to its decimal integer form, so
// 101, 101.0 and 1.01e2 are the same id.
func integerID(n json.Number) (ID, error) {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return ID(strconv.FormatInt(i, 10)), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return "", fmt.Errorf("invalid id %s: not an integer", n)
	}
	return ID(strconv.FormatInt(int64(f), 10)), nil
}

// largest integer a float64 holds exactly
const maxExactFloat = 1 << 53

// Record is a candidate or selected observation.
type Record struct {
	ID               ID     `json:"id"`
	CommonName       string `json:"common_name,omitempty"`
	ScientificName   string `json:"scientific_name,omitempty"`
	TaxonID          int64  `json:"taxon_id,omitempty"`
	Family           string `json:"family,omitempty"`
	Place            string `json:"place,omitempty"`
	Observer         string `json:"observer,omitempty"`
	ObservedOn       string `json:"observed_on,omitempty"`
	ObservationURL   string `json:"observation_url,omitempty"`
	PhotoURL         string `json:"photo_url,omitempty"`
	Attribution      string `json:"attribution,omitempty"`
	ObservationCount int    `json:"observation_count,omitempty"`
	FavoriteCount    int    `json:"favorite_count,omitempty"`

	// set when the record is committed
	SelectedAt     *time.Time `json:"selected_at,omitempty"`
	SequenceNumber int        `json:"sequence_number,omitempty"`
}

// DisplayName is the label shown to people; empty when the
// observation has no common name.
func (r Record) DisplayName() string {
	return strings.TrimSpace(r.CommonName)
}

// Selection is the selector's output: the chosen record plus the
// context the downstream consumer needs.
type Selection struct {
	Record     Record    `json:"record"`
	Ordinal    int       `json:"ordinal"`
	SelectedAt time.Time `json:"selected_at"`

	Attempts int  `json:"attempts"`
	PoolSize int  `json:"pool_size"`
	Favored  bool `json:"favored"`

	// StoreErr is set when the store could not be read for the
	// selection. Ordinal is then not trustworthy and the selection
	// must not be committed.
	StoreErr error `json:"-"`
}
