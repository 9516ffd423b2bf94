package service

import (
	"context"

	"TradeMind/internal/domain/models"
)

// DecisionService adjudicates one pre-analysis report per cycle. The call
// carries a hard deadline via ctx; implementations must map timeouts to
// models.ErrDecisionTimeout and transport/payload faults to
// models.ErrDecisionService. No silent retries.
type DecisionService interface {
	Decide(ctx context.Context, report *models.PreAnalysisReport) (*models.Verdict, error)
}

// Exchange is the live order submission port.
type Exchange interface {
	SubmitOrder(ctx context.Context, intent *models.OrderIntent) (orderData map[string]any, err error)
}

// AlertSender pushes cycle outcomes to the peer alerting service.
// Delivery is best effort; the core only depends on the contract.
type AlertSender interface {
	Send(ctx context.Context, severity, message string, fields map[string]any) error
}

// HealthChecker reports reachability of the peer services.
type HealthChecker interface {
	Check(ctx context.Context) map[string]error
}
