package watcher

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

var (
	errUnavailable = errors.New("unavailable")
	errClosedPipe  = errors.New("closed pipe")
)

// brokenWriter fails every write.
type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errClosedPipe
}

// scriptedSource replays a fixed sequence of poll results and repeats the last one.
type scriptedSource struct {
	mu      sync.Mutex
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	status domain.AlarmStatus
	err    error
}

func (s *scriptedSource) State(context.Context) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := min(s.calls, len(s.results)-1)
	s.calls++

	result := s.results[index]
	if result.err != nil {
		return nil, result.err
	}

	return &domain.State{ArmingStatus: domain.ArmedHome, AlarmStatus: result.status}, nil
}

func TestWatch_ReportsTransitionsUntilAlarm(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{results: []scriptedResult{
		{status: domain.NoAlarm},
		{status: domain.NoAlarm},
		{status: domain.PendingAlarm},
		{err: errUnavailable},
		{status: domain.PendingAlarm},
		{status: domain.Alarm},
	}}

	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := Watch(ctx, source, &Options{
		PollInterval: time.Millisecond,
		ExitOnAlarm:  true,
		Output:       &out,
	})
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "watch should stop on alarm, not on timeout")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "\tNO_ALARM\tARMED_HOME")
	require.Contains(t, lines[1], "\tPENDING_ALARM\t")
	require.Contains(t, lines[2], "\tALARM\t")
	require.Equal(t, 6, source.calls)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{results: []scriptedResult{{status: domain.Alarm}}}

	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Watch(ctx, source, &Options{PollInterval: time.Hour, Output: &out})
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)
	require.Contains(t, out.String(), "\tALARM\t")
}

func TestWatch_ExitsOnAlarmWhenReportFails(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{results: []scriptedResult{
		{status: domain.PendingAlarm},
		{status: domain.Alarm},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := Watch(ctx, source, &Options{
		PollInterval: time.Millisecond,
		ExitOnAlarm:  true,
		Output:       brokenWriter{},
	})
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "watch should stop on alarm, not on timeout")
	require.Equal(t, 2, source.calls)
}
