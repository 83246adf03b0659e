package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus метрик сервиса
// Все методы записи безопасны для nil-получателя (метрики выключены)
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration   *prometheus.HistogramVec
	dbOpenConnections prometheus.Gauge
	dbInUse           prometheus.Gauge
	dbIdle            prometheus.Gauge
	dbWaitCount       prometheus.Gauge

	appointmentTransitions *prometheus.CounterVec
	notificationsTotal     *prometheus.CounterVec
	calendarSyncTotal      *prometheus.CounterVec
	sweepItemsTotal        *prometheus.CounterVec
	sweepDuration          *prometheus.HistogramVec
	slotCacheTotal         *prometheus.CounterVec
}

// New регистрирует метрики в prometheus.DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegisterer регистрирует метрики в указанном registerer
func NewWithRegisterer(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		dbQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation", "status"}),
		dbOpenConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established database connections",
			ConstLabels: constLabels,
		}),
		dbInUse: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of database connections currently in use",
			ConstLabels: constLabels,
		}),
		dbIdle: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle database connections",
			ConstLabels: constLabels,
		}),
		dbWaitCount: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}),

		appointmentTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "salon_appointment_transitions_total",
			Help:        "Appointment status transitions",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "salon_notifications_total",
			Help:        "Notification send attempts by kind, channel and outcome",
			ConstLabels: constLabels,
		}, []string{"kind", "channel", "outcome"}),
		calendarSyncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "salon_calendar_sync_total",
			Help:        "Calendar sync attempts by operation and outcome",
			ConstLabels: constLabels,
		}, []string{"operation", "outcome"}),
		sweepItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "salon_sweep_items_total",
			Help:        "Items processed by background sweeps",
			ConstLabels: constLabels,
		}, []string{"sweep", "outcome"}),
		sweepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "salon_sweep_duration_seconds",
			Help:        "Duration of sweep runs",
			ConstLabels: constLabels,
			Buckets:     []float64{.05, .1, .5, 1, 5, 15, 60},
		}, []string{"sweep"}),
		slotCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "salon_slot_cache_total",
			Help:        "Slot cache lookups by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
	}
}

// ObserveHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery записывает длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(open, inUse, idle int, waitCount int64) {
	if m == nil {
		return
	}
	m.dbOpenConnections.Set(float64(open))
	m.dbInUse.Set(float64(inUse))
	m.dbIdle.Set(float64(idle))
	m.dbWaitCount.Set(float64(waitCount))
}

// IncAppointmentTransition учитывает переход статуса записи
func (m *Metrics) IncAppointmentTransition(from, to string) {
	if m == nil {
		return
	}
	m.appointmentTransitions.WithLabelValues(from, to).Inc()
}

// IncNotification учитывает попытку отправки уведомления
func (m *Metrics) IncNotification(kind, channel, outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, channel, outcome).Inc()
}

// IncCalendarSync учитывает попытку синхронизации с календарем
func (m *Metrics) IncCalendarSync(operation, outcome string) {
	if m == nil {
		return
	}
	m.calendarSyncTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveSweep записывает результат прогона фоновой задачи
func (m *Metrics) ObserveSweep(sweep string, succeeded, failed, skipped int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepItemsTotal.WithLabelValues(sweep, "succeeded").Add(float64(succeeded))
	m.sweepItemsTotal.WithLabelValues(sweep, "failed").Add(float64(failed))
	m.sweepItemsTotal.WithLabelValues(sweep, "skipped").Add(float64(skipped))
	m.sweepDuration.WithLabelValues(sweep).Observe(duration.Seconds())
}

// IncSlotCache учитывает обращение к кэшу слотов (hit/miss)
func (m *Metrics) IncSlotCache(result string) {
	if m == nil {
		return
	}
	m.slotCacheTotal.WithLabelValues(result).Inc()
}
