package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/lab-ranker/internal/models"
)

// LabAnalyzer runs one analysis over a set of labs
type LabAnalyzer interface {
	AnalyzeLabs(ctx context.Context, labIDs []string) (*models.Report, error)
}

// CompletionFunc is called after every scheduled run, with the report when
// the run produced one
type CompletionFunc func(report *models.Report, err error)

// Scheduler manages scheduled lab analysis jobs
type Scheduler struct {
	cron            *cron.Cron
	analyzer        LabAnalyzer
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	onComplete      CompletionFunc
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler. Schedules are evaluated in UTC.
func NewScheduler(analyzer LabAnalyzer, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		analyzer:        analyzer,
		logger:          logger.WithField("component", "scheduler"),
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// OnComplete registers fn to be called after every scheduled run
func (s *Scheduler) OnComplete(fn CompletionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// ScheduleAnalysis schedules an analysis of labIDs on a standard cron
// expression. Each run is cancelled after timeout.
func (s *Scheduler) ScheduleAnalysis(cronExpression string, labIDs []string, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if len(labIDs) == 0 {
		return fmt.Errorf("no labs to analyze")
	}
	if timeout <= 0 {
		timeout = time.Hour
	}
	labs := append([]string(nil), labIDs...)

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		s.runOnce(labs, timeout)
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"cron": cronExpression,
		"labs": len(labs),
	}).Info("Scheduled lab analysis")

	return nil
}

// RunNow runs the analysis of labIDs immediately, outside the schedule
func (s *Scheduler) RunNow(labIDs []string, timeout time.Duration) {
	s.runOnce(labIDs, timeout)
}

func (s *Scheduler) runOnce(labIDs []string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	report, err := s.analyzer.AnalyzeLabs(ctx, labIDs)
	entry := s.logger.WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		entry.WithError(err).Error("Scheduled analysis failed")
	} else {
		entry.WithFields(logrus.Fields{
			"run_id":      report.RunID.String(),
			"recommended": report.Summary.Recommended,
		}).Info("Scheduled analysis completed")
	}

	s.mu.RLock()
	fn := s.onComplete
	s.mu.RUnlock()
	if fn != nil {
		fn(report, err)
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs, up to the graceful
// timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
