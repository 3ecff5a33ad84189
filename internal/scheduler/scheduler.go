package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on cron schedules, one job at a time
type Scheduler struct {
	cron     *cron.Cron
	logger   *logrus.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential job execution
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// AddJob registers a job on a cron schedule, e.g. "@every 1h" or "0 3 * * *".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"schedule": schedule,
		"job":      job.Name(),
	}).Info("Job registered")
	return nil
}

// RunNow executes a job immediately, outside its schedule
func (s *Scheduler) RunNow(job Job) error {
	return s.run(job)
}

// RunOnStart executes a job once in the background, ahead of its schedule
func (s *Scheduler) RunOnStart(job Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.WithField("job", job.Name()).Info("Running startup job")
		s.run(job)
	}()
}

func (s *Scheduler) run(job Job) error {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	log := s.logger.WithField("job", job.Name())
	if s.ctx.Err() != nil {
		log.Debug("Skipping job, scheduler is stopping")
		return s.ctx.Err()
	}

	log.Debug("Running job")
	start := time.Now()
	err := job.Run(s.ctx)
	log = log.WithField("duration", time.Since(start).String())
	if err != nil {
		log.WithError(err).Error("Job failed")
		return err
	}
	log.Debug("Job completed")
	return nil
}
