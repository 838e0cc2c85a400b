package listener

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

const metricPrefix = "catpoint_"

// Metrics counts engine notifications and tracks the current alarm status.
type Metrics struct {
	alarmTransitions  *prometheus.CounterVec
	catDetections     *prometheus.CounterVec
	sensorBroadcasts  prometheus.Counter
	currentAlarmLevel prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		alarmTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alarm_status_changes_total",
				Help: "Alarm status notifications by new status",
			},
			[]string{"status"},
		),
		catDetections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "images_processed_total",
				Help: "Processed camera images by classification result",
			},
			[]string{"cat"},
		),
		sensorBroadcasts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_status_broadcasts_total",
				Help: "Sensor status broadcasts sent after arming changes",
			},
		),
		currentAlarmLevel: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "alarm_status",
				Help: "Current alarm status: 0 no alarm, 1 pending, 2 alarm",
			},
		),
	}

	for _, collector := range []prometheus.Collector{
		m.alarmTransitions,
		m.catDetections,
		m.sensorBroadcasts,
		m.currentAlarmLevel,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return m, nil
}

// OnSensorStatusChanged counts the broadcast.
func (m *Metrics) OnSensorStatusChanged(context.Context) error {
	m.sensorBroadcasts.Inc()

	return nil
}

// OnCatDetected counts the classification result.
func (m *Metrics) OnCatDetected(_ context.Context, catDetected bool) error {
	m.catDetections.WithLabelValues(strconv.FormatBool(catDetected)).Inc()

	return nil
}

// Observe sets the status gauge without counting a transition.
// Used to seed the gauge with the persisted status at startup.
func (m *Metrics) Observe(status domain.AlarmStatus) {
	m.currentAlarmLevel.Set(float64(status))
}

// OnAlarmStatusChanged counts the transition and updates the status gauge.
func (m *Metrics) OnAlarmStatusChanged(_ context.Context, status domain.AlarmStatus) error {
	m.alarmTransitions.WithLabelValues(status.String()).Inc()
	m.currentAlarmLevel.Set(float64(status))

	return nil
}
