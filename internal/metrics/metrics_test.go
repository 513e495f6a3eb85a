package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSweep(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordSweep(time.Now(), 2, 5, nil)
	m.RecordSweep(time.Now(), 0, -1, errors.New("db down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweeps.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweeps.WithLabelValues(ResultError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.evictions))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.participants), "failed scan leaves the gauge alone")
}

func TestRecordOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordOperation("register", ResultOK)
	m.RecordOperation("register", ResultOK)
	m.RecordOperation("register", "conflict")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("register", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("register", "conflict")))
}
