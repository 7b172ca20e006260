package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// HTTPMetricsSource is implemented by the metrics middleware.
type HTTPMetricsSource interface {
	Snapshot() (requests map[string]int64, avgSeconds float64, active int64)
}

// MetricsHandler exposes request and provider counters in the Prometheus
// text format. It also records weather provider calls.
type MetricsHandler struct {
	mu           sync.RWMutex
	serviceCalls map[string]int64
	serviceErrs  map[string]int64
	http         HTTPMetricsSource
}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{
		serviceCalls: make(map[string]int64),
		serviceErrs:  make(map[string]int64),
	}
}

// SetHTTPSource attaches the middleware whose counters are served.
func (h *MetricsHandler) SetHTTPSource(src HTTPMetricsSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.http = src
}

func (h *MetricsHandler) RecordWeatherServiceCall(ctx context.Context, service string, success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.serviceCalls[service]++
	if !success {
		h.serviceErrs[service]++
	}
}

func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var b strings.Builder

	if h.http != nil {
		requests, avg, active := h.http.Snapshot()

		b.WriteString("# HELP http_requests_total Total number of HTTP requests\n")
		b.WriteString("# TYPE http_requests_total counter\n")
		for _, key := range sortedKeys(requests) {
			parts := strings.SplitN(key, " ", 3)
			if len(parts) != 3 {
				continue
			}
			fmt.Fprintf(&b, "http_requests_total{method=%q,route=%q,status=%q} %d\n",
				parts[0], parts[1], parts[2], requests[key])
		}

		b.WriteString("\n# HELP http_request_duration_seconds_avg Average duration of recent HTTP requests\n")
		b.WriteString("# TYPE http_request_duration_seconds_avg gauge\n")
		b.WriteString("http_request_duration_seconds_avg " + strconv.FormatFloat(avg, 'f', 6, 64) + "\n")

		b.WriteString("\n# HELP http_active_requests Number of active HTTP requests\n")
		b.WriteString("# TYPE http_active_requests gauge\n")
		b.WriteString("http_active_requests " + strconv.FormatInt(active, 10) + "\n\n")
	}

	b.WriteString("# HELP weather_service_calls_total Total weather service calls\n")
	b.WriteString("# TYPE weather_service_calls_total counter\n")
	for _, service := range sortedKeys(h.serviceCalls) {
		fmt.Fprintf(&b, "weather_service_calls_total{service=%q} %d\n", service, h.serviceCalls[service])
	}

	b.WriteString("\n# HELP weather_service_errors_total Total weather service errors\n")
	b.WriteString("# TYPE weather_service_errors_total counter\n")
	for _, service := range sortedKeys(h.serviceErrs) {
		fmt.Fprintf(&b, "weather_service_errors_total{service=%q} %d\n", service, h.serviceErrs[service])
	}

	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
