package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"holdings/internal/core"
	"holdings/internal/log"
	ports "holdings/internal/sheets"
)

// DefaultSheetName is the tab written when none is configured.
const DefaultSheetName = "Balance Sheet"

// Ensure interface conformance
var _ ports.BalanceSheetExporter = (*Exporter)(nil)

// Config selects the target spreadsheet and the identity used to write to
// it. A service account (CredentialsJSON wins over CredentialsFile) takes
// precedence over OAuth user credentials.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string

	OAuthClientFile string
	OAuthClientJSON string
	OAuthTokenFile  string
	OAuthTokenJSON  string
}

// Exporter writes balance sheets into one tab of a Google spreadsheet. Each
// export replaces the tab's previous content.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New creates an Exporter authenticated with service account credentials,
// falling back to an OAuth user token.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// A custom HTTP client bypasses the credential options, so the client
	// carries the token source itself.
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(newHTTPClientWithPooling(ts)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Exporter {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func tokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	creds, err := inlineOrFile(cfg.CredentialsJSON, cfg.CredentialsFile, "service account file")
	if err != nil {
		return nil, err
	}
	if creds != nil {
		c, err := goauth.CredentialsFromJSON(ctx, creds, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("service account credentials: %w", err)
		}
		return c.TokenSource, nil
	}

	ts, err := userTokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or an OAuth client and token)")
	}
	return ts, nil
}

// newHTTPClientWithPooling creates an authenticated HTTP client tuned for the
// Sheets API
func newHTTPClientWithPooling(ts oauth2.TokenSource) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: oauth2.ReuseTokenSource(nil, ts), Base: transport},
		Timeout:   60 * time.Second,
	}
}

// ExportBalanceSheet clears the tab and writes sheet starting at A1.
func (e *Exporter) ExportBalanceSheet(ctx context.Context, sheet core.BalanceSheet) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:L", e.sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := ports.Table(sheet)
	rng := fmt.Sprintf("%s!A1", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	ref := resp.UpdatedRange
	if ref == "" {
		ref = fmt.Sprintf("%s!A1:L%d", e.sheetName, len(values))
	}
	e.logger.InfoContext(ctx, "Balance sheet exported",
		log.FieldOperation, log.OpExport,
		log.FieldRows, sheet.Shown(),
		"range", ref)
	return ref, nil
}
