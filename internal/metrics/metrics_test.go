package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilRegistryDisables(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	// every recorder is safe on a nil receiver
	m.RecordLoad(OutcomeOK, time.Second, 3)
	m.RecordDiscard()
	m.SessionOpened()
	m.SessionClosed()
}

func TestRecordLoad(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RecordLoad(OutcomeOK, 10*time.Millisecond, 4)
	m.RecordLoad(OutcomeOK, 20*time.Millisecond, 2)
	m.RecordLoad(OutcomeMalformed, time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues(OutcomeMalformed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues(OutcomeRetrieval)))

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]uint64{}
	for _, mf := range families {
		if h := mf.GetMetric()[0].GetHistogram(); h != nil {
			counts[mf.GetName()] = h.GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), counts["apidocs_loader_load_duration_seconds"])
	assert.Equal(t, uint64(2), counts["apidocs_loader_endpoints_per_document"])
}

func TestSessionsAndDiscards(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.RecordDiscard()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DiscardedSelections))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
