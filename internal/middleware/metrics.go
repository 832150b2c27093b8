package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cinetheque/api/pkg/metrics"
)

// Metrics observes latency per routed request. Unrouted paths collapse into a
// single label so probes against random URLs cannot inflate cardinality, and
// scrapes of the metrics endpoint itself are not recorded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		switch path {
		case "/metrics":
			return
		case "":
			path = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
