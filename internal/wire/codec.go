package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// Field names used in Struct documents.
const (
	FieldArmingStatus = "arming_status"
	FieldAlarmStatus  = "alarm_status"
	FieldCatSpotted   = "cat_spotted"
	FieldSensors      = "sensors"
	FieldName         = "name"
	FieldType         = "type"
	FieldActive       = "active"
)

var (
	// ErrMissingField is returned when a required document field is absent.
	ErrMissingField = errors.New("missing field")
	// ErrMalformedDocument is returned when a field holds a value of the wrong kind.
	ErrMalformedDocument = errors.New("malformed document")
)

// StateToProto converts a state snapshot into a Struct document.
func StateToProto(state *domain.State) *structpb.Struct {
	if state == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}
	}

	sensors := make([]*structpb.Value, 0, len(state.Sensors))
	for _, sensor := range state.Sensors {
		sensors = append(sensors, structpb.NewStructValue(SensorToProto(sensor)))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldArmingStatus: structpb.NewStringValue(state.ArmingStatus.String()),
			FieldAlarmStatus:  structpb.NewStringValue(state.AlarmStatus.String()),
			FieldCatSpotted:   structpb.NewBoolValue(state.CatSpotted),
			FieldSensors:      structpb.NewListValue(&structpb.ListValue{Values: sensors}),
		},
	}
}

// StateFromProto converts a Struct document into a state snapshot.
// Missing statuses default to DISARMED and NO_ALARM.
func StateFromProto(doc *structpb.Struct) (*domain.State, error) {
	state := &domain.State{
		ArmingStatus: domain.Disarmed,
		AlarmStatus:  domain.NoAlarm,
	}

	fields := doc.GetFields()

	if v, ok := fields[FieldArmingStatus]; ok {
		status, err := domain.ParseArmingStatus(v.GetStringValue())
		if err != nil {
			return nil, err
		}

		state.ArmingStatus = status
	}

	if v, ok := fields[FieldAlarmStatus]; ok {
		status, err := domain.ParseAlarmStatus(v.GetStringValue())
		if err != nil {
			return nil, err
		}

		state.AlarmStatus = status
	}

	state.CatSpotted = fields[FieldCatSpotted].GetBoolValue()

	if v, ok := fields[FieldSensors]; ok {
		list := v.GetListValue()
		if list == nil {
			return nil, fmt.Errorf("%w: %s is not a list", ErrMalformedDocument, FieldSensors)
		}

		for i, item := range list.GetValues() {
			sensorDoc := item.GetStructValue()
			if sensorDoc == nil {
				return nil, fmt.Errorf("%w: sensor #%d is not an object", ErrMalformedDocument, i)
			}

			sensor, err := SensorFromProto(sensorDoc)
			if err != nil {
				return nil, fmt.Errorf("sensor #%d: %w", i, err)
			}

			state.Sensors = append(state.Sensors, sensor)
		}
	}

	return state, nil
}

// SensorToProto converts a sensor into a Struct document.
func SensorToProto(sensor *domain.Sensor) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldName:   structpb.NewStringValue(sensor.Name),
			FieldType:   structpb.NewStringValue(string(sensor.Type)),
			FieldActive: structpb.NewBoolValue(sensor.Active),
		},
	}
}

// SensorFromProto converts a Struct document into a validated sensor.
func SensorFromProto(doc *structpb.Struct) (*domain.Sensor, error) {
	fields := doc.GetFields()

	name, ok := fields[FieldName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldName)
	}

	rawType, ok := fields[FieldType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldType)
	}

	sensorType, err := domain.ParseSensorType(rawType.GetStringValue())
	if err != nil {
		return nil, err
	}

	sensor, err := domain.NewSensor(name.GetStringValue(), sensorType)
	if err != nil {
		return nil, err
	}

	sensor.Active = fields[FieldActive].GetBoolValue()

	return sensor, nil
}

// ArmingRequest builds the SetArmingStatus request document.
func ArmingRequest(status domain.ArmingStatus) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldArmingStatus: structpb.NewStringValue(status.String()),
		},
	}
}

// ArmingFromRequest extracts the arming status from a SetArmingStatus request.
func ArmingFromRequest(doc *structpb.Struct) (domain.ArmingStatus, error) {
	v, ok := doc.GetFields()[FieldArmingStatus]
	if !ok {
		return domain.Disarmed, fmt.Errorf("%w: %s", ErrMissingField, FieldArmingStatus)
	}

	return domain.ParseArmingStatus(v.GetStringValue())
}
