package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

type countingRunner struct {
	calls atomic.Int32
	last  atomic.Value
}

func (r *countingRunner) RunMeeting(_ context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	r.calls.Add(1)
	r.last.Store(t)
	return &models.MeetingReport{ID: "r", Type: t}, nil
}

func TestParseSchedules(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []Entry
		wantErr string
	}{
		{
			name: "two entries",
			in:   "daily=0 9 * * *; weekly=0 9 * * 1",
			want: []Entry{
				{Type: models.MeetingDaily, Spec: "0 9 * * *"},
				{Type: models.MeetingWeekly, Spec: "0 9 * * 1"},
			},
		},
		{name: "descriptor", in: "oncall=@every 30m", want: []Entry{{Type: models.MeetingOnCall, Spec: "@every 30m"}}},
		{name: "empty", in: "", want: nil},
		{name: "unknown type", in: "hourly=0 * * * *", wantErr: "unknown meeting type"},
		{name: "bad spec", in: "daily=not a spec", wantErr: "schedule daily"},
		{name: "missing separator", in: "daily", wantErr: "expected type=spec"},
		{name: "duplicate", in: "daily=@daily;daily=@hourly", wantErr: "scheduled twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedules(tt.in)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedulerRunsMeetings(t *testing.T) {
	runner := &countingRunner{}
	s, err := New(runner, []Entry{{Type: models.MeetingOnCall, Spec: "@every 1s"}}, time.Second, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	s.Start()
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, models.MeetingOnCall, runner.last.Load())
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	_, err := New(&countingRunner{}, []Entry{{Type: "bogus", Spec: "@daily"}}, 0, zerolog.Nop())
	assert.Error(t, err)
}
