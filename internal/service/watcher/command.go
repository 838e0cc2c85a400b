package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/catpoint/internal/config"
	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/service/common"
)

// Options controls the watcher polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between state checks.
	PollInterval time.Duration
	// ExitOnAlarm stops watching once the alarm status reaches ALARM.
	ExitOnAlarm bool
	// Output receives one line per observed alarm status change; defaults to stdout.
	Output io.Writer
}

// DefaultPollInterval is used when Options.PollInterval is not positive.
const DefaultPollInterval = 5 * time.Second

// StateSource yields the current security state.
type StateSource interface {
	State(ctx context.Context) (*domain.State, error)
}

// errAlarmRaised stops the polling loop when ExitOnAlarm is set.
var errAlarmRaised = errors.New("alarm raised")

// Run dials the server and watches its state until the context is canceled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "catpoint-watch")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Watching alarm state", "server_address", serverAddress)

	return Watch(ctx, client, opts)
}

// Watch polls source at the configured interval and reports every alarm status change.
// The first successful poll is always reported. Poll failures are logged and retried
// on the next tick.
func Watch(ctx context.Context, source StateSource, opts *Options) error {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	w := &watch{
		source:      source,
		output:      output,
		exitOnAlarm: opts.ExitOnAlarm,
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.check(ctx); err != nil {
			if errors.Is(err, errAlarmRaised) {
				logger.Info(ctx, "Alarm raised, exiting")
				return nil
			}

			logger.ErrorKV(ctx, "Check state failed", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
		}
	}
}

type watch struct {
	source      StateSource
	output      io.Writer
	exitOnAlarm bool

	// last is the alarm status of the previous successful poll, nil before the first one.
	last *domain.AlarmStatus
}

// check fetches the state once and reports it when the alarm status changed.
func (w *watch) check(ctx context.Context) error {
	state, err := w.source.State(ctx)
	if err != nil {
		return err
	}

	current := state.AlarmStatus
	if w.last == nil || *w.last != current {
		logger.InfoKV(ctx, "Alarm status observed",
			"alarm_status", current.String(),
			"arming_status", state.ArmingStatus.String(),
			"cat_spotted", state.CatSpotted)

		_, err = fmt.Fprintf(w.output, "%s\t%s\t%s\n",
			time.Now().Format(time.RFC3339), current, state.ArmingStatus)
		if err != nil {
			err = fmt.Errorf("write report: %w", err)
		}

		w.last = &current
	}

	// A failed report must not keep the watcher alive once the alarm fired.
	if w.exitOnAlarm && current == domain.Alarm {
		if err != nil {
			logger.ErrorKV(ctx, "Report alarm failed", "error", err)
		}

		return errAlarmRaised
	}

	return err
}
