package schedule

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type countJob struct {
	name    string
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (j *countJob) Name() string { return j.name }

func (j *countJob) Run(ctx context.Context) error {
	j.calls.Add(1)
	if j.started != nil {
		close(j.started)
		<-j.release
	}
	return nil
}

func TestCronScheduler_AddJob(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "cleanup"}
	require.NoError(t, s.AddJob(job, "0 3 * * *"))
	require.Error(t, s.AddJob(job, "0 4 * * *"))
	require.Error(t, s.AddJob(&countJob{name: "bad"}, "not a spec"))
	require.NoError(t, s.AddJob(&countJob{name: "daily"}, "@daily"))
}

func TestCronScheduler_Trigger(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "cleanup"}
	require.NoError(t, s.AddJob(job, "0 3 * * *"))
	require.NoError(t, s.Trigger("cleanup"))
	require.EqualValues(t, 1, job.calls.Load())
	require.Error(t, s.Trigger("missing"))
}

func TestCronScheduler_SkipsOverlappingRun(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "slow", started: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, s.AddJob(job, "0 3 * * *"))

	done := make(chan struct{})
	go func() {
		_ = s.Trigger("slow")
		close(done)
	}()
	<-job.started
	require.NoError(t, s.Trigger("slow"))
	close(job.release)
	<-done
	require.EqualValues(t, 1, job.calls.Load())
}
