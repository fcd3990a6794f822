package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"gymmate-backend/internal/logger"
	"gymmate-backend/internal/services"
)

// UsageConsumer charges one unit of a daily limit.
type UsageConsumer interface {
	Consume(ctx context.Context, userID uuid.UUID, limit services.Limit) (*services.Usage, error)
}

const quotaKey contextKey = "quota_charge"

type quotaCharge func(w http.ResponseWriter, r *http.Request) bool

// Quota attaches a charge for limit to signed-in requests. Nothing is counted until
// the handler calls ChargeQuota, so rejected requests keep their allowance.
// Anonymous requests carry no charge.
func Quota(usage UsageConsumer, limit services.Limit) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == uuid.Nil {
				next.ServeHTTP(w, r)
				return
			}

			charge := quotaCharge(func(w http.ResponseWriter, r *http.Request) bool {
				return consume(w, r, usage, userID, limit)
			})
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), quotaKey, charge)))
		})
	}
}

// ChargeQuota spends one unit of the quota attached by Quota. It returns false
// after writing a 429 when the allowance is spent. Requests without a quota pass.
func ChargeQuota(w http.ResponseWriter, r *http.Request) bool {
	charge, ok := r.Context().Value(quotaKey).(quotaCharge)
	if !ok {
		return true
	}
	return charge(w, r)
}

// consume lets the request through when the counter store fails.
func consume(w http.ResponseWriter, r *http.Request, usage UsageConsumer, userID uuid.UUID, limit services.Limit) bool {
	u, err := usage.Consume(r.Context(), userID, limit)
	var quotaErr *services.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", quotaErr.Message, r)
		return false
	case err != nil:
		slog.WarnContext(r.Context(), "usage counter unavailable", "limit", limit, logger.Err(err))
	case u != nil && u.Limit != services.Unlimited:
		w.Header().Set("X-Quota-Remaining", strconv.Itoa(u.Remaining))
	}
	return true
}
