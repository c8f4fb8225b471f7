package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"holdings/internal/core"
	"holdings/internal/log"
	"holdings/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.startedAt).String(),
	})
}

// handleReady performs readiness check with dependency verification. The
// balance check goes through the service, so a cached batch counts as ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.balance == nil {
		checks["holdings_source"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if view := s.balance.BalanceSheet(ctx, core.Query{}); view.Degraded {
		checks["holdings_source"] = "failed: " + view.Reason
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["holdings_source"] = map[string]any{
			"status":   "ok",
			"holdings": view.Total(),
		}
	}

	if s.exporter != nil {
		checks["exporter"] = "ok"
	} else {
		checks["exporter"] = "not_configured"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	holdingsCreated := atomic.LoadInt64(&s.appMetrics.holdingsCreated)
	exports := atomic.LoadInt64(&s.appMetrics.exports)
	uptime := time.Since(s.appMetrics.startedAt)

	w.WriteHeader(http.StatusOK)

	// Prometheus text exposition format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_requests_failed_total Total number of HTTP requests answered with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_requests_failed_total counter\n")
	fmt.Fprintf(w, "http_requests_failed_total %d\n\n", traceMetrics.FailedRequests)

	fmt.Fprintf(w, "# HELP http_response_time_avg_microseconds Moving average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP holdings_created_total Total number of holdings created\n")
	fmt.Fprintf(w, "# TYPE holdings_created_total counter\n")
	fmt.Fprintf(w, "holdings_created_total %d\n\n", holdingsCreated)

	fmt.Fprintf(w, "# HELP balance_sheet_exports_total Total number of balance sheet exports\n")
	fmt.Fprintf(w, "# TYPE balance_sheet_exports_total counter\n")
	fmt.Fprintf(w, "balance_sheet_exports_total %d\n\n", exports)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP blocked_requests_total Total requests blocked by method\n")
	fmt.Fprintf(w, "# TYPE blocked_requests_total counter\n")
	fmt.Fprintf(w, "blocked_requests_total %d\n\n", securityMetrics.BlockedRequests)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

// balancePage is the data both the full page and the partial render.
type balancePage struct {
	View       services.BalanceView
	Query      core.Query
	Categories []core.Category
	Currency   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	s.renderBalance(w, r, "index.html")
}

func (s *Server) handleBalancePartial(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		ErrorResponse(http.StatusInternalServerError, "Templates not loaded").Write(w)
		return
	}
	s.renderBalance(w, r, "balance_sheet.html")
}

func (s *Server) renderBalance(w http.ResponseWriter, r *http.Request, name string) {
	q := ParseQuery(r.URL.Query())
	view := s.balance.BalanceSheet(r.Context(), q)

	data := balancePage{
		View:       view,
		Query:      q,
		Categories: core.Categories(),
		Currency:   s.currency,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
