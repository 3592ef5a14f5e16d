package health

import (
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs periodic background checks.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &Scheduler{scheduler: s}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// ScheduleCron runs job on a cron expression.
func (s *Scheduler) ScheduleCron(tag, cronExpr string, job func() error) error {
	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(job)
	return err
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}
