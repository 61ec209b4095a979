package selector

import (
	"github.com/mothmailer/mothmailer/record"
)

// Nameable reports if the record has a display name.
func Nameable(r record.Record) bool {
	return r.DisplayName() != ""
}

// HasPhoto reports if the record has a photo to show.
func HasPhoto(r record.Record) bool {
	return r.PhotoURL != ""
}

// Favored reports if the record has at least one favorite.
func Favored(r record.Record) bool {
	return r.FavoriteCount > 0
}

// StopFunc decides after each attempt if sampling can stop.
type StopFunc func(p *Pool) bool

// FavoredFound stops as soon as the pool holds a favorited record.
func FavoredFound(p *Pool) bool {
	return p.FavoredLen() > 0
}

// Pool accumulates novel, nameable, photographed candidates across attempts within
// one run. Each id is pooled once.
type Pool struct {
	records []record.Record
	favored []int
	seen    record.IDSet
}

func newPool() *Pool {
	return &Pool{seen: record.IDSet{}}
}

// add filters the page against the known ids and the pool and returns
// the per-record outcomes.
func (p *Pool) add(page []record.Record, known record.IDSet) map[candidateOutcome]int {
	counts := map[candidateOutcome]int{}
	for _, r := range page {
		var o candidateOutcome
		switch {
		case r.ID == "" || known.Has(r.ID):
			o = outcomeKnown
		case !Nameable(r):
			o = outcomeUnnamed
		case !HasPhoto(r):
			o = outcomeNoPhoto
		case p.seen.Has(r.ID):
			o = outcomeDuplicate
		default:
			o = outcomeAccepted
			p.seen.Add(r.ID)
			if Favored(r) {
				p.favored = append(p.favored, len(p.records))
			}
			p.records = append(p.records, r)
		}
		counts[o]++
	}
	return counts
}

func (p *Pool) Len() int {
	return len(p.records)
}

func (p *Pool) FavoredLen() int {
	return len(p.favored)
}

// Records returns the pooled records in the order they were added
func (p *Pool) Records() []record.Record {
	return append([]record.Record(nil), p.records...)
}

// FavoredRecords returns the pooled records with favorites
func (p *Pool) FavoredRecords() []record.Record {
	rs := make([]record.Record, 0, len(p.favored))
	for _, i := range p.favored {
		rs = append(rs, p.records[i])
	}
	return rs
}

// pick chooses uniformly from the favored subset when it is not
// empty, otherwise from the whole pool. intn returns [0,n).
func (p *Pool) pick(intn func(n int) int) (record.Record, bool) {
	if len(p.favored) > 0 {
		return p.records[p.favored[intn(len(p.favored))]], true
	}
	return p.records[intn(len(p.records))], false
}
