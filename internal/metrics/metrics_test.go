package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransitionIgnoresSameStatus(t *testing.T) {
	before := testutil.ToFloat64(MeetingTransitions.WithLabelValues("waiting", "waiting"))
	RecordTransition("waiting", "waiting")
	assert.Equal(t, before, testutil.ToFloat64(MeetingTransitions.WithLabelValues("waiting", "waiting")))

	before = testutil.ToFloat64(MeetingTransitions.WithLabelValues("waiting", "ongoing"))
	RecordTransition("waiting", "ongoing")
	assert.Equal(t, before+1, testutil.ToFloat64(MeetingTransitions.WithLabelValues("waiting", "ongoing")))
}

func TestRecordHTTP(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("POST", "/api/v1/meetings/:id/join", "200"))
	RecordHTTP("POST", "/api/v1/meetings/:id/join", 200, 15*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("POST", "/api/v1/meetings/:id/join", "200")))
}
