package provider

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"royaltyengine/service"
)

// logNotificationSink records statement notifications in the application log.
// Delivery to creators is owned by the platform's notification pipeline; this
// sink is the engine-side default.
type logNotificationSink struct{}

// NewLogNotificationSink creates a notification sink that only logs
func NewLogNotificationSink() service.NotificationSink {
	return &logNotificationSink{}
}

func (s *logNotificationSink) Notify(ctx context.Context, creatorID uuid.UUID, statementID int64, event string) error {
	log.WithFields(log.Fields{
		"creatorID":   creatorID,
		"statementID": statementID,
		"event":       event,
	}).Info("Statement notification")
	return nil
}
