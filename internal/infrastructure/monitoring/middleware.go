package monitoring

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Stage outcomes used as the status label.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Middleware records method, route, status and latency of collector requests.
// Unrouted paths share one label so scanners cannot blow up cardinality.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures one pipeline stage. A nil *Metrics still measures.
type Timer struct {
	start   time.Time
	metrics *Metrics
	stage   string
}

// NewTimer starts timing stage.
func NewTimer(metrics *Metrics, stage string) *Timer {
	return &Timer{start: time.Now(), metrics: metrics, stage: stage}
}

// Observe records the stage outcome derived from err and returns the
// elapsed time.
func (t *Timer) Observe(err error) time.Duration {
	elapsed := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordStage(t.stage, Status(err), elapsed)
	}
	return elapsed
}

// Status maps err to a status label.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusError
	}
}
