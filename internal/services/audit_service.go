package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/util"
)

// AuditService persists security events emitted by the admission engine.
// Writes go through a bounded queue drained by one goroutine so recording a
// denial never blocks an in-flight admission decision; when the queue is
// full the event is dropped and logged.
type AuditService struct {
	db    *gorm.DB
	queue chan models.SecurityEvent
	done  chan struct{}
}

// NewAuditService returns a running audit sink over db.
func NewAuditService(db *gorm.DB) *AuditService {
	s := &AuditService{
		db:    db,
		queue: make(chan models.SecurityEvent, 256),
		done:  make(chan struct{}),
	}
	go s.drain()
	return s
}

// RecordDenial implements admission.EventSink.
func (s *AuditService) RecordDenial(identifier string, class admission.RuleClass, reason admission.Reason, context map[string]string) {
	details := ""
	if len(context) > 0 {
		if b, err := json.Marshal(context); err == nil {
			details = string(b)
		}
	}

	ev := models.SecurityEvent{
		UUID:       uuid.NewString(),
		Identifier: util.Truncate(util.SanitizeForLog(identifier), 256),
		RuleClass:  string(class),
		Reason:     string(reason),
		Details:    util.Truncate(details, 2048),
		CreatedAt:  time.Now(),
	}

	select {
	case s.queue <- ev:
	default:
		logger.WithComponent("audit").WithFields(map[string]interface{}{
			"identifier": ev.Identifier,
			"reason":     ev.Reason,
		}).Warn("audit queue full, dropping event")
	}
}

func (s *AuditService) drain() {
	for {
		select {
		case ev := <-s.queue:
			if err := s.db.Create(&ev).Error; err != nil {
				logger.WithComponent("audit").WithError(err).Error("persist security event")
			}
		case <-s.done:
			return
		}
	}
}

// ListEvents returns recent security events, newest first.
func (s *AuditService) ListEvents(limit int) ([]models.SecurityEvent, error) {
	var events []models.SecurityEvent
	q := s.db.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// PruneBefore deletes events created before cutoff and reports how many
// rows went away.
func (s *AuditService) PruneBefore(cutoff time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", cutoff).Delete(&models.SecurityEvent{})
	return res.RowsAffected, res.Error
}

// Close stops the drain goroutine. Queued events are discarded.
func (s *AuditService) Close() {
	close(s.done)
}
