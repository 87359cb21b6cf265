// Пакет metrics объявляет метрики Prometheus сервиса документов.
//
// Основные возможности:
//   - Счетчики и гистограммы преобразований между форматами.
//   - Счетчики команд редактирования и число открытых сессий.
//   - Счетчик сохраненных снимков документа.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "richdoc"

// Metrics - набор метрик сервиса. Нулевой указатель допустим: все методы ничего не делают.
type Metrics struct {
	conversions        *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	commands           *prometheus.CounterVec
	activeSessions     prometheus.Gauge
	snapshots          *prometheus.CounterVec
}

// New создает метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Total count of document conversions",
		}, []string{"from", "to", "status"}),
		conversionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Document conversion duration",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"from", "to"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total count of editing commands by result",
		}, []string{"command", "applied"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Count of open editing sessions",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Total count of stored document snapshots",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{m.conversions, m.conversionDuration, m.commands, m.activeSessions, m.snapshots} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveConversion учитывает преобразование from -> to и его длительность.
func (m *Metrics) ObserveConversion(from, to string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(from, to, status(err)).Inc()
	m.conversionDuration.WithLabelValues(from, to).Observe(time.Since(started).Seconds())
}

// CommandApplied учитывает выполнение команды. applied false - команда оказалась неприменимой.
func (m *Metrics) CommandApplied(name string, applied bool) {
	if m == nil {
		return
	}
	label := "false"
	if applied {
		label = "true"
	}
	m.commands.WithLabelValues(name, label).Inc()
}

// SessionOpened и SessionClosed меняют число открытых сессий.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// SnapshotSaved учитывает сохранение снимка.
func (m *Metrics) SnapshotSaved(err error) {
	if m != nil {
		m.snapshots.WithLabelValues(status(err)).Inc()
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
