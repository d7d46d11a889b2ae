package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ekahanny/souvenir-tracking-be/internal/dashboard"
)

// DashboardWarmer rebuilds the dashboard summary cache so the first reader
// after expiry never pays the query cost.
type DashboardWarmer struct {
	service *dashboard.Service
	logger  *slog.Logger
}

// NewDashboardWarmer constructs a DashboardWarmer.
func NewDashboardWarmer(service *dashboard.Service, logger *slog.Logger) *DashboardWarmer {
	return &DashboardWarmer{service: service, logger: logger}
}

// Handle processes TaskDashboardWarmup tasks.
func (w *DashboardWarmer) Handle(ctx context.Context, t *asynq.Task) error {
	w.service.Invalidate(ctx)
	if _, err := w.service.Summary(ctx); err != nil {
		return err
	}
	if w.logger != nil {
		w.logger.Info("dashboard cache warmed")
	}
	return nil
}
