package security

import (
	"errors"
	"fmt"
	"strings"
)

// ArmingStatus tells whether the system is disarmed or armed.
type ArmingStatus int

const (
	// Disarmed means sensor activity never raises the alarm.
	Disarmed ArmingStatus = iota
	// ArmedHome means the owner is at home; a spotted cat raises the alarm.
	ArmedHome
	// ArmedAway means the house is empty.
	ArmedAway
)

// AlarmStatus is the current severity of the alarm.
type AlarmStatus int

const (
	// NoAlarm means nothing is happening.
	NoAlarm AlarmStatus = iota
	// PendingAlarm means one sensor fired while armed.
	PendingAlarm
	// Alarm means the alarm is triggered.
	Alarm
)

var (
	// ErrUnknownArmingStatus is returned when an arming status cannot be parsed.
	ErrUnknownArmingStatus = errors.New("unknown arming status")
	// ErrUnknownAlarmStatus is returned when an alarm status cannot be parsed.
	ErrUnknownAlarmStatus = errors.New("unknown alarm status")
)

//nolint:gochecknoglobals // Lookup tables for enum names.
var (
	armingStatusNames = map[ArmingStatus]string{
		Disarmed:  "DISARMED",
		ArmedHome: "ARMED_HOME",
		ArmedAway: "ARMED_AWAY",
	}
	alarmStatusNames = map[AlarmStatus]string{
		NoAlarm:      "NO_ALARM",
		PendingAlarm: "PENDING_ALARM",
		Alarm:        "ALARM",
	}
)

// ArmingStatuses lists every arming status.
func ArmingStatuses() []ArmingStatus {
	return []ArmingStatus{Disarmed, ArmedHome, ArmedAway}
}

// AlarmStatuses lists every alarm status.
func AlarmStatuses() []AlarmStatus {
	return []AlarmStatus{NoAlarm, PendingAlarm, Alarm}
}

// String returns the canonical upper-case name.
func (s ArmingStatus) String() string {
	if name, ok := armingStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("ArmingStatus(%d)", int(s))
}

// IsArmed reports whether the status is one of the armed variants.
func (s ArmingStatus) IsArmed() bool {
	return s == ArmedHome || s == ArmedAway
}

// Valid reports whether s is a known arming status.
func (s ArmingStatus) Valid() bool {
	_, ok := armingStatusNames[s]

	return ok
}

// ParseArmingStatus accepts canonical names as well as lower-case and
// dash separated forms ("armed-home").
func ParseArmingStatus(s string) (ArmingStatus, error) {
	normalized := normalizeName(s)
	for status, name := range armingStatusNames {
		if name == normalized {
			return status, nil
		}
	}

	return Disarmed, fmt.Errorf("%w: %q", ErrUnknownArmingStatus, s)
}

// String returns the canonical upper-case name.
func (s AlarmStatus) String() string {
	if name, ok := alarmStatusNames[s]; ok {
		return name
	}

	return fmt.Sprintf("AlarmStatus(%d)", int(s))
}

// Valid reports whether s is a known alarm status.
func (s AlarmStatus) Valid() bool {
	_, ok := alarmStatusNames[s]

	return ok
}

// ParseAlarmStatus accepts canonical names as well as lower-case and
// dash separated forms ("pending-alarm").
func ParseAlarmStatus(s string) (AlarmStatus, error) {
	normalized := normalizeName(s)
	for status, name := range alarmStatusNames {
		if name == normalized {
			return status, nil
		}
	}

	return NoAlarm, fmt.Errorf("%w: %q", ErrUnknownAlarmStatus, s)
}

func normalizeName(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))

	return strings.ReplaceAll(s, "-", "_")
}
