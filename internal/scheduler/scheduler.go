package scheduler

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"contribflow/internal/logger"
)

// NamedJob - задача с именем для логов
type NamedJob interface {
	cron.Job
	Name() string
}

// Scheduler оборачивает cron: каждая задача логируется, паника не роняет процесс,
// а повторный запуск ждёт завершения предыдущего
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
}

func New() *Scheduler {
	log := logger.WithComponent("cron")
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			recoverPanics(log),
			cron.DelayIfStillRunning(cron.DiscardLogger),
		)),
		log: log,
	}
}

func (s *Scheduler) Register(spec string, job NamedJob) error {
	if _, err := s.cron.AddJob(spec, withLogging(s.log, job)); err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
	}
	s.log.WithFields(logrus.Fields{"job": job.Name(), "schedule": spec}).Info("job registered")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop ждёт завершения выполняющихся задач
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func withLogging(log *logrus.Entry, job NamedJob) cron.Job {
	return cron.FuncJob(func() {
		entry := log.WithFields(logrus.Fields{
			"job":          job.Name(),
			"execution_id": uuid.NewString(),
		})
		start := time.Now()
		entry.Debug("job started")
		job.Run()
		entry.WithField("duration", time.Since(start).String()).Debug("job finished")
	})
}

func recoverPanics(log *logrus.Entry) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(logrus.Fields{
						"panic": r,
						"stack": string(debug.Stack()),
					}).Error("job panicked")
				}
			}()
			j.Run()
		})
	}
}
