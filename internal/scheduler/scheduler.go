package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Poller is the job the scheduler drives. The notifier satisfies it.
type Poller interface {
	Poll(ctx context.Context, cities []string) int
}

type Scheduler struct {
	poller   Poller
	logger   *zap.Logger
	cron     *cron.Cron
	entryID  cron.EntryID
	schedule string
	timeout  time.Duration

	// polls started outside cron by Start and ForceRun
	wg sync.WaitGroup

	mu      sync.Mutex
	cities  []string
	running bool
	polling bool
	lastRun time.Time
	lastAdd int
}

// NewScheduler fails when schedule is not a valid cron spec or descriptor.
func NewScheduler(poller Poller, cities []string, schedule string, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		poller:   poller,
		logger:   logger,
		schedule: schedule,
		timeout:  60 * time.Second,
		cities:   append([]string(nil), cities...),
	}

	cl := cronLogger{logger.Sugar()}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id, err := s.cron.AddFunc(schedule, s.runPoll)
	if err != nil {
		return nil, fmt.Errorf("invalid notification schedule %q: %w", schedule, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(s.entryID).Next))

	// Run immediately on start
	s.goPoll()
}

func (s *Scheduler) goPoll() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPoll()
	}()
}

func (s *Scheduler) runPoll() {
	s.mu.Lock()
	if s.polling {
		s.mu.Unlock()
		s.logger.Debug("Skipping poll, previous run still in progress")
		return
	}
	s.polling = true
	cities := append([]string(nil), s.cities...)
	s.mu.Unlock()

	startTime := time.Now()
	s.logger.Info("Starting notification poll", zap.Strings("cities", cities))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	added := s.poller.Poll(ctx, cities)

	s.mu.Lock()
	s.polling = false
	s.lastRun = startTime
	s.lastAdd = added
	s.mu.Unlock()

	s.logger.Info("Notification poll completed",
		zap.Int("added", added),
		zap.Duration("duration", time.Since(startTime)))
}

// Stop waits for a poll in flight to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering notification poll")
	s.goPoll()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":    s.running,
		"schedule":   s.schedule,
		"last_run":   s.lastRun,
		"last_added": s.lastAdd,
		"cities":     append([]string(nil), s.cities...),
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}

func (s *Scheduler) UpdateCities(cities []string) {
	s.mu.Lock()
	s.cities = append([]string(nil), cities...)
	s.mu.Unlock()

	s.logger.Info("Scheduler cities updated", zap.Strings("cities", cities))
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
