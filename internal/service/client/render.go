package client

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// RenderState prints the statuses and a sensor table.
func RenderState(w io.Writer, state *domain.State) error {
	if state == nil {
		_, err := fmt.Fprintln(w, "<nil state>")

		return err
	}

	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleLight)
	summary.AppendRows([]table.Row{
		{"Arming status", state.ArmingStatus.String()},
		{"Alarm status", alarmCell(state.AlarmStatus)},
		{"Cat spotted", yesNo(state.CatSpotted)},
	})
	summary.Render()

	if len(state.Sensors) == 0 {
		_, err := fmt.Fprintln(w, "No sensors registered.")

		return err
	}

	sensors := table.NewWriter()
	sensors.SetOutputMirror(w)
	sensors.SetStyle(table.StyleLight)
	sensors.AppendHeader(table.Row{"Sensor", "Type", "Active"})

	for _, sensor := range state.Sensors {
		sensors.AppendRow(table.Row{sensor.Name, string(sensor.Type), yesNo(sensor.Active)})
	}

	sensors.AppendFooter(table.Row{"", "Active", fmt.Sprintf("%d/%d", state.ActiveSensors(), len(state.Sensors))})
	sensors.Render()

	return nil
}

func alarmCell(status domain.AlarmStatus) string {
	switch status {
	case domain.Alarm:
		return text.Colors{text.FgHiWhite, text.BgRed}.Sprint(status.String())
	case domain.PendingAlarm:
		return text.FgYellow.Sprint(status.String())
	default:
		return status.String()
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}
