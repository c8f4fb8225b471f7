package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"holdings/internal/core"
	"holdings/internal/log"
	"holdings/internal/middleware/ratelimit"
	"holdings/internal/middleware/security"
	"holdings/internal/middleware/trace"
	"holdings/internal/report"
	"holdings/internal/services"
	"holdings/internal/sheets"
	appweb "holdings/web"
)

// Ports used by the handlers.
type (
	BalanceReader interface {
		BalanceSheet(ctx context.Context, q core.Query) services.BalanceView
		Row(ctx context.Context, id string) (core.CanonicalRow, error)
	}

	HoldingCreator interface {
		CreateHolding(ctx context.Context, r core.RawRecord) (string, error)
	}

	SnapshotLister interface {
		ListSnapshots(ctx context.Context, limit int) ([]core.Snapshot, error)
	}
)

// Dependencies groups what NewServer wires into the routes. Exporter and
// Snapshots are optional; their routes answer 501 when nil.
type Dependencies struct {
	Balance   BalanceReader
	Holdings  HoldingCreator
	Exporter  sheets.BalanceSheetExporter
	Snapshots SnapshotLister
	Currency  string
	RateLimit ratelimit.Config
}

type appMetrics struct {
	holdingsCreated int64
	exports         int64
	startedAt       time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	balance   BalanceReader
	holdings  HoldingCreator
	exporter  sheets.BalanceSheetExporter
	snapshots SnapshotLister
	currency  string

	logger           *log.Logger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, deps Dependencies, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	rlConfig := deps.RateLimit
	if rlConfig.RequestsPerMinute == 0 {
		rlConfig = ratelimit.DefaultConfig()
	}

	currency := deps.Currency
	if currency == "" {
		currency = core.DefaultCurrency
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:           addr,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		balance:          deps.Balance,
		holdings:         deps.Holdings,
		exporter:         deps.Exporter,
		snapshots:        deps.Snapshots,
		currency:         currency,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{startedAt: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	t, err := template.New("").Funcs(templateFuncs(currency)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	// Balance data never goes to shared caches.
	private := func(h http.HandlerFunc) http.Handler { return security.NoStoreMiddleware(h) }

	mux.Handle("GET /{$}", private(s.handleIndex))
	mux.Handle("GET /ui/balance-sheet", private(s.handleBalancePartial))
	mux.Handle("POST /ui/holdings", private(s.handleCreateHoldingForm))

	mux.Handle("GET /api/balance-sheet", private(s.handleBalanceSheetJSON))
	mux.Handle("GET /api/holdings", private(s.handleListHoldings))
	mux.Handle("POST /api/holdings", private(s.handleCreateHolding))
	mux.Handle("GET /api/holdings/{id}", private(s.handleGetHolding))
	mux.Handle("POST /api/export", private(s.handleExport))
	mux.Handle("GET /api/snapshots", private(s.handleSnapshots))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
	})

	// Outermost first: trace, headers, detection, rate limiting.
	var handler http.Handler = mux
	handler = limited(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

// Shutdown stops the rate limiter cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func templateFuncs(currency string) template.FuncMap {
	return template.FuncMap{
		"value": func(r core.CanonicalRow) string {
			return report.Amount(r.CurrentValue, r.Type, currency)
		},
		"cost": func(r core.CanonicalRow) string {
			return report.Amount(r.CostBasis, core.EntryAsset, currency)
		},
		"gain": func(r core.CanonicalRow) string {
			return report.Gain(r.UnrealizedGain, currency)
		},
		"assets": func(d decimal.Decimal) string {
			return core.FormatCurrency(d, currency)
		},
		"liabilities": func(d decimal.Decimal) string {
			return core.FormatParenthesized(d, currency)
		},
		"equity": func(d decimal.Decimal) string {
			return core.FormatSigned(d, currency)
		},
		"sub":   report.Subcategory,
		"date":  core.FormatDate,
		"share": core.FormatShare,
		"pct":   core.FormatPercent,
	}
}
