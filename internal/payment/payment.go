// Package payment authorises plan upgrades taken during onboarding.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/richmondazadze/scantotap-sub001/internal/models"
)

var ErrDeclined = errors.New("payment declined")

// Authorizer reserves payment for a plan and returns a reference code.
type Authorizer interface {
	Authorize(ctx context.Context, userID, planType, billingCycle string) (string, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, userID, planType, billingCycle string) (string, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, userID, planType, billingCycle string) (string, error) {
	return f(ctx, userID, planType, billingCycle)
}

// Sandbox approves every well-formed pro request without contacting a
// payment provider.
type Sandbox struct{}

func (Sandbox) Authorize(ctx context.Context, userID, planType, billingCycle string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if planType != models.PlanPro {
		return "", fmt.Errorf("%w: nothing to charge for plan %q", ErrDeclined, planType)
	}
	if billingCycle != models.BillingMonthly && billingCycle != models.BillingYearly {
		return "", fmt.Errorf("%w: unknown billing cycle %q", ErrDeclined, billingCycle)
	}
	ref := "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	slog.Info("Payment authorised", "user_id", userID, "plan", planType, "cycle", billingCycle, "reference", ref)
	return ref, nil
}
