package review

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AHGGG/nce-english-practices-sub006/internal/logger"
	"github.com/AHGGG/nce-english-practices-sub006/internal/models"
)

// BroadcastFunc pushes an event to UI clients; wired from main.
type BroadcastFunc func(msgType string, payload interface{})

// Scheduler runs the daily due-card reminder.
type Scheduler struct {
	cron      *cron.Cron
	service   *Service
	broadcast BroadcastFunc
}

func NewScheduler(service *Service, broadcast BroadcastFunc) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		service:   service,
		broadcast: broadcast,
	}
}

const logRetention = 180 * 24 * time.Hour

// Start schedules the daily jobs: the due-card reminder at 8am local time
// and review-log pruning overnight.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc("0 8 * * *", s.notifyDue); err != nil {
		logger.Error("Failed to schedule review reminder: %v", err)
		return
	}
	if _, err := s.cron.AddFunc("30 3 * * *", s.pruneLogs); err != nil {
		logger.Error("Failed to schedule log pruning: %v", err)
		return
	}
	s.cron.Start()
	logger.Success("Review scheduler started")
}

func (s *Scheduler) pruneLogs() {
	n, err := s.service.PruneLogs(logRetention)
	if err != nil {
		logger.Error("Failed to prune review logs: %v", err)
		return
	}
	if n > 0 {
		logger.Info("Pruned %d old review logs", n)
	}
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Success("Review scheduler stopped")
}

func (s *Scheduler) notifyDue() {
	count, err := s.service.DueCount()
	if err != nil {
		logger.Error("Failed to count due cards: %v", err)
		return
	}
	if count == 0 {
		return
	}

	logger.Info("%d cards due for review", count)
	if s.broadcast != nil {
		s.broadcast("review_due", models.WSReviewDue{
			DueCount: count,
			Date:     time.Now().Format("2006-01-02"),
		})
	}
}
