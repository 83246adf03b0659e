package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg, "salon-test")

	m.IncNotification("confirmation", "email", "sent")
	m.IncNotification("confirmation", "email", "sent")
	m.IncAppointmentTransition("pending_payment", "scheduled")
	m.ObserveSweep("expire-holds", 2, 1, 0, time.Second)
	m.ObserveDBQuery("exec", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notificationsTotal.WithLabelValues("confirmation", "email", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.appointmentTransitions.WithLabelValues("pending_payment", "scheduled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweepItemsTotal.WithLabelValues("expire-holds", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweepItemsTotal.WithLabelValues("expire-holds", "failed")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		m.IncSlotCache("hit")
		m.SetDBPoolStats(1, 1, 0, 0)
		m.IncCalendarSync("create", "ok")
	})
}
