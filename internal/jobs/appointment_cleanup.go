package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ruangjiwa/MindCareBack/internal/config"
	"github.com/ruangjiwa/MindCareBack/internal/services"
)

// AppointmentCleanup cancels pending appointment requests whose preferred
// slot is long past. Runs on the configured cron schedule.
type AppointmentCleanup struct {
	appointmentService *services.AppointmentService
	maxPendingAge      time.Duration
	schedule           string
	cron               *cron.Cron
}

func NewAppointmentCleanup(
	appointmentService *services.AppointmentService,
	cfg *config.Config,
) *AppointmentCleanup {
	return &AppointmentCleanup{
		appointmentService: appointmentService,
		maxPendingAge:      cfg.AppointmentMaxAge,
		schedule:           cfg.CleanupSchedule,
	}
}

func (j *AppointmentCleanup) Start() error {
	j.cron = cron.New()
	if _, err := j.cron.AddFunc(j.schedule, j.runOnce); err != nil {
		return err
	}
	j.cron.Start()
	log.Printf("appointment cleanup scheduled: %s", j.schedule)
	return nil
}

func (j *AppointmentCleanup) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *AppointmentCleanup) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cancelled, err := j.appointmentService.ExpireStalePending(ctx, j.maxPendingAge)
	if err != nil {
		log.Printf("appointment cleanup: %v", err)
		return
	}
	if cancelled > 0 {
		log.Printf("appointment cleanup: cancelled %d stale requests", cancelled)
	}
}
