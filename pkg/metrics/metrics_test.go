package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRowsExtractedCounter(t *testing.T) {
	RowsExtracted.Reset()
	RowsExtracted.WithLabelValues("ids", "students").Add(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(RowsExtracted.WithLabelValues("ids", "students")))
}

func TestTimerObserveDuration(t *testing.T) {
	timer := NewTimer()
	timer.ObserveDurationVec(TableDuration, "ids", "students", "extract")
	assert.GreaterOrEqual(t, timer.Duration().Seconds(), 0.0)
}
