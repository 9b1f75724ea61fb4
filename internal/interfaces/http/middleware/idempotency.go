package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/interfaces/http/response"
	"gradvillage.backend/pkg/logger"
	"gradvillage.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the cache
	IdempotencyReplayHeader = "X-Idempotency-Replayed"
	// LockDuration is the time we hold the lock while processing
	LockDuration = 60 * time.Second
	// RetentionDuration is how long we keep the response
	RetentionDuration = 24 * time.Hour

	processingMarker = "processing"
	maxKeyLength     = 255
)

// CodeIdempotencyInFlight is returned while the first request is still running.
const CodeIdempotencyInFlight = "idempotency_in_flight"

var (
	redisReady   = redis.Ready
	redisLock    = redis.TryLock
	redisLoad    = redis.Load
	redisStore   = redis.Store
	redisRelease = redis.Release
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        string `json:"body"`
}

// IdempotencyMiddleware holds a Redis lock per Idempotency-Key while the
// request runs and replays the stored response for later retries.
// Only responses below 500 are cached so transient failures can be retried.
func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if key == "" || !redisReady() {
			c.Next()
			return
		}
		if len(key) > maxKeyLength {
			response.Error(c, domainerrors.FieldError(IdempotencyHeader, "Idempotency-Key is too long"))
			c.Abort()
			return
		}

		storageKey := idempotencyStorageKey(c, key)
		ctx := c.Request.Context()

		acquired, err := redisLock(ctx, storageKey, processingMarker, LockDuration)
		if err != nil {
			// the durable key in the database still protects the write path
			logger.Warn(ctx, "Idempotency lock unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !acquired {
			val, found, err := redisLoad(ctx, storageKey)
			if err != nil {
				logger.Warn(ctx, "Idempotency lookup failed", zap.Error(err))
				c.Next()
				return
			}
			if found && val != processingMarker {
				var cached cachedResponse
				if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil && cached.Status > 0 {
					c.Header(IdempotencyReplayHeader, "true")
					c.Data(cached.Status, cached.ContentType, []byte(cached.Body))
					c.Abort()
					return
				}
			}
			response.Error(c, domainerrors.NewAppError(
				http.StatusConflict,
				CodeIdempotencyInFlight,
				"A request with this Idempotency-Key is already in progress",
				domainerrors.ErrAlreadyExists,
			))
			c.Abort()
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			_ = redisRelease(ctx, storageKey)
			return
		}

		payload, _ := json.Marshal(cachedResponse{
			Status:      status,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        w.body.String(),
		})
		if err := redisStore(ctx, storageKey, string(payload), RetentionDuration); err != nil {
			logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
		}
	}
}

func idempotencyStorageKey(c *gin.Context, key string) string {
	owner := "anonymous"
	if userID, ok := GetUserID(c); ok {
		owner = userID.String()
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return fmt.Sprintf("idempotency:%s:%s:%s:%s", c.Request.Method, route, owner, key)
}
