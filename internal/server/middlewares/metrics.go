package middlewares

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const maxDurations = 1000

// MetricsMiddleware counts requests per route and status and keeps a window
// of recent request durations.
type MetricsMiddleware struct {
	mu        sync.RWMutex
	requests  map[string]int64
	durations []float64
	active    int64
}

func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{
		requests: make(map[string]int64),
	}
}

func (m *MetricsMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.mu.Lock()
		m.active++
		m.mu.Unlock()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		key := c.Request.Method + " " + route + " " + strconv.Itoa(c.Writer.Status())

		m.mu.Lock()
		m.requests[key]++
		m.durations = append(m.durations, time.Since(start).Seconds())
		if len(m.durations) > maxDurations {
			m.durations = m.durations[len(m.durations)-maxDurations:]
		}
		m.active--
		m.mu.Unlock()
	}
}

// Snapshot returns request counts keyed by "METHOD route status", the
// average duration of the retained window in seconds, and in-flight requests.
func (m *MetricsMiddleware) Snapshot() (map[string]int64, float64, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	requests := make(map[string]int64, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}

	var avg float64
	if len(m.durations) > 0 {
		var sum float64
		for _, d := range m.durations {
			sum += d
		}
		avg = sum / float64(len(m.durations))
	}

	return requests, avg, m.active
}
