package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/yukikurage/tenant-task-api/internal/logger"
)

// Scheduler runs named housekeeping jobs at fixed intervals.
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      map[string]*gocron.Job
	mu        sync.Mutex
	running   bool
}

// New creates a stopped scheduler. Jobs never overlap with themselves.
func New() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]*gocron.Job),
	}
}

// Every registers task to run every interval under name.
func (s *Scheduler) Every(name string, interval time.Duration, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	job, err := s.scheduler.Every(interval).WaitForSchedule().Tag(name).Do(task)
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}
	s.jobs[name] = job
	return nil
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.scheduler.StartAsync()
	s.running = true
	logger.Info("Scheduler started", "jobs", len(s.jobs))
}

// Stop halts the scheduler; running jobs finish first.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.scheduler.Stop()
	s.running = false
	logger.Info("Scheduler stopped")
}
