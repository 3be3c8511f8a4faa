// Package sheets mirrors tickets as rows of a Google spreadsheet through the
// Sheets v4 REST API, authenticated as a service account.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/jwt"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/integration"
)

const spreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

// ErrRowNotFound is reported when an update finds no row for the ticket number.
var ErrRowNotFound = errors.New("Ticket not found in sheet")

// Client appends and rewrites ticket rows.
type Client struct {
	cfg        config.SheetsConfig
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient builds a client. httpClient may be nil, in which case a
// service-account client is built from cfg.
func NewClient(cfg config.SheetsConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil && cfg.Configured() {
		jwtCfg := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{spreadsheetsScope},
			TokenURL:   cfg.TokenURL,
		}
		httpClient = jwtCfg.Client(context.Background())
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger, now: time.Now}
}

// Upsert mirrors one ticket change. Delete is acknowledged without touching
// the sheet; rows are kept as an audit trail.
func (c *Client) Upsert(ctx context.Context, ticket domain.Ticket, op integration.Operation) integration.Result {
	if !c.cfg.Configured() {
		c.logger.Warn("google sheets credentials missing", zap.String("ticket_no", ticket.TicketNo))
		return integration.Result{Success: false, Error: integration.CredentialsMissing}
	}

	var err error
	switch op {
	case integration.OperationInsert:
		err = c.appendRow(ctx, ticket)
	case integration.OperationUpdate:
		err = c.updateRow(ctx, ticket)
	case integration.OperationDelete:
		c.logger.Info("sheet row deletion skipped", zap.String("ticket_no", ticket.TicketNo))
		return integration.OK()
	default:
		err = fmt.Errorf("unsupported operation %q", op)
	}
	if err != nil {
		c.logger.Warn("sheet sync failed",
			zap.String("ticket_no", ticket.TicketNo),
			zap.String("operation", string(op)),
			zap.Error(err))
		return integration.Failed(err)
	}
	return integration.OK()
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

func (c *Client) appendRow(ctx context.Context, ticket domain.Ticket) error {
	row := c.row(ticket, c.now().Format("2006-01-02 15:04:05"))
	endpoint := c.valuesURL(c.cfg.Range) + ":append?valueInputOption=USER_ENTERED"
	return c.do(ctx, http.MethodPost, endpoint, valueRange{Values: [][]string{row}}, nil)
}

func (c *Client) updateRow(ctx context.Context, ticket domain.Ticket) error {
	var existing valueRange
	if err := c.do(ctx, http.MethodGet, c.valuesURL(c.cfg.Range), nil, &existing); err != nil {
		return err
	}
	index := -1
	for i, r := range existing.Values {
		if len(r) > 0 && r[0] == ticket.TicketNo {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrRowNotFound
	}

	rowNo := index + 1
	target := fmt.Sprintf("%s!A%d:M%d", c.sheetName(), rowNo, rowNo)
	row := c.row(ticket, c.now().Format("2006-01-02 15:04:05")+" (Updated)")
	endpoint := c.valuesURL(target) + "?valueInputOption=USER_ENTERED"
	return c.do(ctx, http.MethodPut, endpoint, valueRange{Range: target, Values: [][]string{row}}, nil)
}

// row lays the ticket out as columns A..M.
func (c *Client) row(t domain.Ticket, stamp string) []string {
	return []string{
		t.TicketNo,
		t.TicketDate,
		t.RequestedBy,
		t.Department,
		t.ToDept,
		string(t.Priority),
		t.Description,
		string(t.Status),
		orDash(t.AssignedTo),
		orDash(t.AssignedDate),
		orDash(t.CompletedOn),
		orDash(t.Remarks),
		stamp,
	}
}

func (c *Client) sheetName() string {
	name, _, found := strings.Cut(c.cfg.Range, "!")
	if !found || name == "" {
		return "Sheet1"
	}
	return name
}

func (c *Client) valuesURL(rng string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + url.PathEscape(c.cfg.SheetID) + "/values/" + url.PathEscape(rng)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sheets api %s: status %d: %s", method, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
