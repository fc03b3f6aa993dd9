package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/utils"

	"github.com/robfig/cron/v3"
)

// ReportRunner is the job the scheduler fires.
type ReportRunner interface {
	Run(ctx context.Context) (ReportResult, error)
}

// Scheduler fires the daily report on a cron expression in local time.
// Overlapping runs are skipped and a panicking run is recovered.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(spec string, job ReportRunner) (*Scheduler, error) {
	logger := cron.PrintfLogger(utils.Log)
	c := cron.New(
		cron.WithLocation(time.Local),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, ctx: ctx, cancel: cancel}

	if _, err := c.AddFunc(spec, func() {
		// errors are logged by the job itself
		_, _ = job.Run(s.ctx)
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	utils.LogEvent("", "scheduler", "start", fmt.Sprintf("entries=%d", len(s.cron.Entries())))
}

// Stop waits for a running job to finish, then cancels its context.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
}
