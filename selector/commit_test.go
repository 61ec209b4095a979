package selector

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mothmailer/mothmailer/record"
	tu "github.com/mothmailer/mothmailer/testutil"
)

func TestCommit(t *testing.T) {
	ctx := tu.Context(t)
	st, doc := newStore(`[1, 2]`)

	at := time.Date(2024, 7, 4, 18, 30, 0, 0, time.UTC)
	sel := &record.Selection{Record: tu.Rec("3", 2), Ordinal: 3, SelectedAt: at}

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	res := Commit(ctx, st, sel, m)
	require.True(t, res.Committed)
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Record.SequenceNumber)
	assert.True(t, at.Equal(*res.Record.SelectedAt))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Commits.WithLabelValues("ok")))

	var got struct {
		Records []record.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(doc.Body(), &got))
	require.Len(t, got.Records, 3)
	assert.Equal(t, record.ID("3"), got.Records[2].ID)
	assert.Equal(t, 3, got.Records[2].SequenceNumber)
	assert.Equal(t, "Moth 3", got.Records[2].CommonName)

	assert.Nil(t, sel.Record.SelectedAt, "the selection itself is not modified")
}

func TestCommitFailureIsSoft(t *testing.T) {
	ctx := tu.Context(t)
	st, doc := newStore(`[1]`)
	doc.ReplaceErr = errors.New("quota exceeded")

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	sel := &record.Selection{Record: tu.Rec("2", 0), Ordinal: 2, SelectedAt: time.Now()}
	res := Commit(ctx, st, sel, m)
	assert.False(t, res.Committed)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "quota exceeded")
	assert.Equal(t, record.ID("2"), res.Record.ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Commits.WithLabelValues("failed")))

	assert.False(t, st.KnownIDs(ctx).Has("2"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.attempt()
		m.candidates(map[candidateOutcome]int{outcomeKnown: 1})
		m.run(resultPool)
		m.poolSize(3)
		m.commit(true)
	})
}
