package daemon

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TaskFunc is a runnable maintenance task.
type TaskFunc func() error

// Scheduler runs one task on a cron schedule. It is a deliberately
// small single-task scheduler: the daemon only ever schedules the
// brake self-test.
type Scheduler struct {
	Task TaskFunc

	parser cron.Parser

	mu       sync.Mutex
	schedule cron.Schedule
	nextRun  time.Time
	running  bool

	recalcCh chan struct{}
	stopCh   chan struct{}
}

func NewScheduler(task TaskFunc) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}
	return &Scheduler{
		Task:     task,
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		recalcCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Schedule parses and installs a cron expression.
func (s *Scheduler) Schedule(cronExpr string) error {
	sh, err := s.parser.Parse(cronExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.schedule = sh
	s.nextRun = sh.Next(time.Now())
	s.mu.Unlock()

	select {
	case s.recalcCh <- struct{}{}:
	default:
	}
	return nil
}

// Start launches the scheduler goroutine. Idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.run()
}

// Stop terminates the scheduler. Idempotent.
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// Status returns the next run time and whether the scheduler runs.
func (s *Scheduler) Status() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun, s.running
}

func (s *Scheduler) run() {
	for {
		s.mu.Lock()
		next := s.nextRun
		s.mu.Unlock()

		if next.IsZero() {
			select {
			case <-s.stopCh:
				return
			case <-s.recalcCh:
				continue
			}
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-s.recalcCh:
			timer.Stop()
			continue
		case <-timer.C:
		}

		logrus.WithField("scheduledAt", next).Info("running scheduled task")
		if err := s.Task(); err != nil {
			logrus.WithError(err).Error("scheduled task failed")
		}

		s.mu.Lock()
		if s.schedule != nil {
			s.nextRun = s.schedule.Next(time.Now())
		}
		s.mu.Unlock()
	}
}
