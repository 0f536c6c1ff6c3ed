package middleware

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/gateway/respond"
)

const rateLimitPrefix = "circuit_tracker_limiter"

func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
}

func NewRedisStore(client *redis.Client) (limiter.Store, error) {
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
}

// RateLimit applies one global per-client-IP rate, given in limiter's
// formatted notation such as "5-S" or "100-M".
func RateLimit(formatted string, store limiter.Store) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formatted, err)
	}

	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respond.Error(w, http.StatusTooManyRequests, "Too many requests")
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Log.WithError(err).Error("rate limiter store failed")
			respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		}),
	)
	return mw.Handler, nil
}
