package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DeliveryScheduler arranges and retracts future step deliveries. The engine
// never calls the chat transport directly: services collect the affected
// step ids during the transaction and invoke the scheduler only after
// commit, so a rollback cannot leave external jobs cancelled for steps the
// database still considers scheduled.
type DeliveryScheduler interface {
	ScheduleStep(ctx context.Context, stepID string, scheduledForUTC time.Time, userTimezone string) error
	CancelJobs(ctx context.Context, stepIDs []string) error
}

// logDeliveryScheduler records scheduling decisions without talking to a
// transport. Stands in until the delivery worker is wired up.
type logDeliveryScheduler struct {
	logger *zap.Logger
}

// NewLogDeliveryScheduler creates a scheduler that only logs.
func NewLogDeliveryScheduler(logger *zap.Logger) DeliveryScheduler {
	return &logDeliveryScheduler{logger: logger}
}

func (s *logDeliveryScheduler) ScheduleStep(ctx context.Context, stepID string, scheduledForUTC time.Time, userTimezone string) error {
	s.logger.Info("delivery scheduled",
		zap.String("stepId", stepID),
		zap.Time("scheduledFor", scheduledForUTC),
		zap.String("timezone", userTimezone),
	)
	return nil
}

func (s *logDeliveryScheduler) CancelJobs(ctx context.Context, stepIDs []string) error {
	s.logger.Info("delivery jobs cancelled", zap.Strings("stepIds", stepIDs))
	return nil
}
