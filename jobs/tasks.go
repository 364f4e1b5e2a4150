// Package jobs holds background task definitions and the Asynq worker glue.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/idocstoreapp/cotizador-app-sub000/internal/labor"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAcceptanceEmail notifies the client after a quotation is accepted.
	TaskTypeAcceptanceEmail = "mail:acceptance"
	// TaskTypeReconcileRefresh recomputes a company's reconciliation summary.
	TaskTypeReconcileRefresh = "reconcile:refresh"
)

// AcceptanceEmailPayload describes the acceptance notification.
type AcceptanceEmailPayload struct {
	Number      string  `json:"number"`
	ClientEmail *string `json:"client_email,omitempty"`
}

// NewAcceptanceEmailTask constructs an Asynq task.
func NewAcceptanceEmailTask(payload AcceptanceEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAcceptanceEmail, data), nil
}

// HandleAcceptanceEmailTask processes TaskTypeAcceptanceEmail tasks.
func HandleAcceptanceEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload AcceptanceEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.ClientEmail == nil || *payload.ClientEmail == "" {
		return nil
	}
	// Placeholder: integrate with SMTP once the mail relay is provisioned.
	slog.Info("acceptance email", slog.String("number", payload.Number), slog.String("to", *payload.ClientEmail))
	return nil
}

// ReconcileRefreshPayload identifies the company to recompute.
type ReconcileRefreshPayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewReconcileRefreshTask constructs an Asynq task.
func NewReconcileRefreshTask(payload ReconcileRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReconcileRefresh, data), nil
}

// SummaryRefresher recomputes a cached company reconciliation summary.
type SummaryRefresher interface {
	RefreshCompanySummary(ctx context.Context, companyID int64) (*labor.CompanyReconciliationSummary, error)
}

// NewReconcileRefreshHandler builds the handler closure over the
// reconciliation service.
func NewReconcileRefreshHandler(refresher SummaryRefresher, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReconcileRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.CompanyID <= 0 {
			return asynq.SkipRetry
		}
		if _, err := refresher.RefreshCompanySummary(ctx, payload.CompanyID); err != nil {
			logger.Error("reconcile refresh", slog.Int64("company_id", payload.CompanyID), slog.Any("error", err))
			return err
		}
		return nil
	}
}
