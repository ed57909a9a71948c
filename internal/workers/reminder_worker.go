package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/getcoachly/coachly/internal/services"
)

// ReminderWorker periodically sweeps follow-up tasks so overdue ones are
// flagged without waiting for someone to open the task list.
type ReminderWorker struct {
	tasks services.TaskService
	cron  *cron.Cron
	log   *logrus.Entry
}

func NewReminderWorker(tasks services.TaskService, log *logrus.Entry) *ReminderWorker {
	return &ReminderWorker{
		tasks: tasks,
		cron:  cron.New(),
		log:   log,
	}
}

func (w *ReminderWorker) Start() error {
	if _, err := w.cron.AddFunc("@hourly", w.scan); err != nil {
		return err
	}
	w.cron.Start()
	w.log.Info("reminder worker started")
	return nil
}

func (w *ReminderWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *ReminderWorker) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := w.tasks.ScanOverdue(ctx)
	if err != nil {
		w.log.WithError(err).Error("overdue task scan failed")
		return
	}
	w.log.WithField("marked_overdue", n).Debug("overdue task scan complete")
}
