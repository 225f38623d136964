package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"tierimage/internal/queue"
)

type Scheduler struct {
	cron     *cron.Cron
	queue    queue.Enqueuer
	schedule string
	log      zerolog.Logger
}

func NewScheduler(q queue.Enqueuer, schedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		queue:    q,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil || s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.enqueueSweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

const enqueueTimeout = 5 * time.Second

// enqueueSweep bounds the stream write only. An in-process queue runs the
// whole sweep inside Enqueue, so it gets no deadline.
func (s *Scheduler) enqueueSweep() {
	ctx := context.Background()
	if !queue.RunsInProcess(s.queue) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, enqueueTimeout)
		defer cancel()
	}
	if err := s.queue.Enqueue(ctx, queue.Task{Type: queue.TaskSweep}); err != nil {
		s.log.Error().Err(err).Msg("enqueue sweep failed")
	}
}
