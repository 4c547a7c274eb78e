package account

import (
	"context"
	"time"

	"go-account-service/internal/domain"
)

// Brute-force throttling policy. Counters are windowed queries over the audit
// log's login-fail entries, not a separate counter table. Best-effort: two
// concurrent attempts may both slip under a threshold.
const (
	failLongWindow  = 1800 * time.Second
	failLongLimit   = 20
	failShortWindow = 60 * time.Second
	failShortLimit  = 5
	failClearWindow = 3600 * time.Second
)

// checkLoginThrottle rejects before any credential check when the identity has
// too many recent failures.
func (s *Service) checkLoginThrottle(ctx context.Context, email string) error {
	now := s.now()
	n, err := s.logs.CountSince(ctx, domain.EvLoginFail, email, now.Add(-failLongWindow))
	if err != nil {
		return err
	}
	if n >= failLongLimit {
		return domain.E(domain.CodeUnauthorized, "retry after 30 min or reset password")
	}
	n, err = s.logs.CountSince(ctx, domain.EvLoginFail, email, now.Add(-failShortWindow))
	if err != nil {
		return err
	}
	if n >= failShortLimit {
		return domain.E(domain.CodeUnauthorized, "retry after 1 min")
	}
	return nil
}

// clearLoginFailures forgives the trailing hour of failures; called on
// successful login and on admin password reset.
func (s *Service) clearLoginFailures(ctx context.Context, email string) error {
	_, err := s.logs.DeleteSince(ctx, domain.EvLoginFail, email, s.now().Add(-failClearWindow))
	return err
}
