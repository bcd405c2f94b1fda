// Package scheduler запускает фоновые проходы жизненного цикла прогнозов по cron.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Dosada05/tournament-predictor/config"
	"github.com/Dosada05/tournament-predictor/services"
)

// Job - одна фоновая задача и ее расписание.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

// NewScheduler регистрирует проходы LifecycleService с расписаниями из конфигурации.
func NewScheduler(cfg *config.Config, lifecycle services.LifecycleService) *Scheduler {
	return New(
		Job{Name: services.SweepUpcoming, Spec: cfg.UpcomingCron, Run: discardResult(lifecycle.SweepUpcoming)},
		Job{Name: services.SweepMissing, Spec: cfg.MissingCron, Run: discardResult(lifecycle.SweepMissing)},
		Job{Name: services.SweepCleanup, Spec: cfg.CleanupCron, Run: discardResult(lifecycle.CleanupPlaceholders)},
		Job{Name: services.SweepCompletedCheck, Spec: cfg.CompletedCheckCron, Run: discardResult(lifecycle.CheckCompletedMatches)},
		Job{Name: services.SweepDailyReport, Spec: cfg.DailyReportCron, Run: func(ctx context.Context) error {
			_, err := lifecycle.DailyReport(ctx)
			return err
		}},
	)
}

func New(jobs ...Job) *Scheduler {
	logger := cronLogger{log.Logger.With().Str("component", "scheduler").Logger()}
	return &Scheduler{
		// Проход, не успевший завершиться, не запускается повторно поверх себя
		cron: cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		jobs: jobs,
	}
}

func discardResult(fn func(ctx context.Context) (*services.SweepResult, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := fn(ctx)
		return err
	}
}

// Start регистрирует задачи и запускает cron. Задачи получают ctx и прекращают работу при его отмене.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Spec, func() { runJob(ctx, job) }); err != nil {
			return fmt.Errorf("failed to schedule %s sweep %q: %w", job.Name, job.Spec, err)
		}
		log.Info().Str("job", job.Name).Str("schedule", job.Spec).Msg("lifecycle job scheduled")
	}
	s.cron.Start()
	log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
	return nil
}

// Stop останавливает cron и ждет завершения запущенных задач, но не дольше ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	log.Info().Msg("stopping scheduler...")
	select {
	case <-s.cron.Stop().Done():
		log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Msg("scheduler stop timed out, running jobs abandoned")
	}
}

// runJob выполняет задачу; ошибка только логируется, следующий запуск пройдет по расписанию.
func runJob(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	if err := job.Run(ctx); err != nil {
		log.Error().Err(err).Str("job", job.Name).Msg("lifecycle job failed")
	}
}

// cronLogger направляет служебные сообщения cron в zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
