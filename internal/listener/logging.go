package listener

import (
	"context"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
)

// Logging writes every engine notification to the context logger.
type Logging struct{}

// NewLogging creates a logging listener.
func NewLogging() *Logging {
	return new(Logging)
}

// OnSensorStatusChanged logs the sensor broadcast.
func (l *Logging) OnSensorStatusChanged(ctx context.Context) error {
	logger.Info(ctx, "Sensors reset after arming status change")

	return nil
}

// OnCatDetected logs the classification result.
func (l *Logging) OnCatDetected(ctx context.Context, catDetected bool) error {
	if catDetected {
		logger.WarnKV(ctx, "Cat spotted on camera", "cat_detected", true)

		return nil
	}

	logger.InfoKV(ctx, "No cat on camera", "cat_detected", false)

	return nil
}

// OnAlarmStatusChanged logs alarm transitions; a triggered alarm is a warning.
func (l *Logging) OnAlarmStatusChanged(ctx context.Context, status domain.AlarmStatus) error {
	if status == domain.Alarm {
		logger.WarnKV(ctx, "ALARM triggered", "alarm_status", status.String())

		return nil
	}

	logger.InfoKV(ctx, "Alarm status notified", "alarm_status", status.String())

	return nil
}
