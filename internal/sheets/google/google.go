package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"masarif/internal/core"
	applog "masarif/internal/log"
	ports "masarif/internal/sheets"
)

const (
	lastColumn = "F"
	// Cells are stored as typed, never parsed as formulas or dates.
	valueInput = "RAW"
)

// Ensure interface conformance
var _ ports.Exporter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger
	newBackOff    func() backoff.BackOff
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	b, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	creds, err := goauth.CredentialsFromJSON(ctx, b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return newClient(ctx, cfg, logger, goption.WithHTTPClient(authorizedClient(ctx, creds.TokenSource)))
}

// authorizedClient signs requests with ts on top of the pooled transport.
// WithHTTPClient bypasses the option package's own credential handling.
func authorizedClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	base := newHTTPClientWithPooling()
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
	client.Timeout = base.Timeout
	return client
}

func newClient(ctx context.Context, cfg Config, logger *applog.Logger, opts ...goption.ClientOption) (*Client, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}
	logger.InfoContext(ctx, "Google Sheets service created",
		applog.FieldSpreadsheet, cfg.SpreadsheetID,
		"sheet", sheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
		newBackOff:    defaultBackOff,
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API
// with connection pooling and explicit timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// retry runs op with backoff. Client errors other than 429 are not retried.
func (c *Client) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code >= 400 && gerr.Code < 500 && gerr.Code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(c.newBackOff(), ctx))
}

// AppendRecord appends e as one row. If a row with the same ID already
// exists its reference is returned and nothing is written, so redelivered
// events do not duplicate rows.
func (c *Client) AppendRecord(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	idRange := fmt.Sprintf("%s!A:A", c.sheetName)
	var existing *gsheet.ValueRange
	err := c.retry(ctx, func() error {
		var err error
		existing, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, idRange).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("read ids from %s: %w", c.sheetName, err)
	}
	if row, ok := ports.RowIDs(existing.Values)[e.ID]; ok {
		return fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row), nil
	}

	rng := fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
	vr := &gsheet.ValueRange{Values: [][]any{ports.ToRow(e)}}
	var ref string
	err = c.retry(ctx, func() error {
		resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption(valueInput).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return err
		}
		if resp.Updates != nil {
			ref = resp.Updates.UpdatedRange
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	c.logger.InfoContext(ctx, "Expense row appended",
		applog.FieldExpenseID, e.ID,
		"range", ref)
	return ref, nil
}

// ExportLog writes a header plus one row per record in log order, then
// clears the rows left over from a longer previous export. The sheet is
// never blank in between.
func (c *Client) ExportLog(ctx context.Context, log []core.Expense) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}

	values := make([][]any, 0, len(log)+1)
	values = append(values, ports.HeaderRow())
	for _, e := range log {
		values = append(values, ports.ToRow(e))
	}

	start := fmt.Sprintf("%s!A1", c.sheetName)
	err := c.retry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, &gsheet.ValueRange{Values: values}).
			ValueInputOption(valueInput).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("write sheet %s: %w", c.sheetName, err)
	}

	tail := fmt.Sprintf("%s!A%d:%s", c.sheetName, len(values)+1, lastColumn)
	err = c.retry(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, tail, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear stale rows of %s: %w", c.sheetName, err)
	}

	c.logger.InfoContext(ctx, "Log exported",
		applog.FieldSpreadsheet, c.spreadsheetID,
		applog.FieldCount, len(log))
	return len(log), nil
}
