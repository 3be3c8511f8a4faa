// Package analytics mirrors tickets into a Zoho Analytics table.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/integration"
)

// Client writes rows through the analytics REST API. Access tokens come from
// a refresh-token exchange and are reused until they expire.
type Client struct {
	cfg        config.AnalyticsConfig
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     *zap.Logger
}

// NewClient builds the client. httpClient may be nil.
func NewClient(cfg config.AnalyticsConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		tokens:     oauthCfg.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: cfg.RefreshToken}),
		logger:     logger,
	}
}

// Sync mirrors one ticket change. Update and delete address the row by the
// ticket's internal id.
func (c *Client) Sync(ctx context.Context, ticket domain.Ticket, op integration.Operation) integration.Result {
	if !c.cfg.Configured() {
		c.logger.Warn("analytics credentials missing", zap.String("ticket_id", ticket.ID))
		return integration.Result{Success: false, Error: integration.CredentialsMissing}
	}

	token, err := c.tokens.Token()
	if err != nil {
		c.logger.Warn("analytics auth failed", zap.Error(err))
		return integration.Result{Success: false, Error: "Auth failed"}
	}

	req, err := c.buildRequest(ctx, ticket, op)
	if err != nil {
		return integration.Failed(err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token.AccessToken)
	if c.cfg.OrgID != "" {
		req.Header.Set("ZANALYTICS-ORGID", c.cfg.OrgID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("analytics sync failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return integration.Failed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("analytics sync rejected",
			zap.String("ticket_id", ticket.ID),
			zap.String("operation", string(op)),
			zap.Int("status", resp.StatusCode))
		return integration.Result{Success: false, Error: strings.TrimSpace(string(body))}
	}
	c.logger.Info("analytics sync ok", zap.String("ticket_id", ticket.ID), zap.String("operation", string(op)))
	return integration.OK()
}

type rowConfig struct {
	Columns  map[string]any `json:"columns,omitempty"`
	Criteria string         `json:"criteria,omitempty"`
}

func (c *Client) buildRequest(ctx context.Context, ticket domain.Ticket, op integration.Operation) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/workspaces/%s/views/%s/rows",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.WorkspaceID),
		url.PathEscape(c.cfg.TableID))

	cfg := rowConfig{}
	method := http.MethodPost
	switch op {
	case integration.OperationInsert:
		cfg.Columns = Columns(ticket)
	case integration.OperationUpdate:
		method = http.MethodPut
		cfg.Columns = Columns(ticket)
		cfg.Criteria = Criteria(ticket.ID)
	case integration.OperationDelete:
		method = http.MethodDelete
		cfg.Criteria = Criteria(ticket.ID)
	default:
		return nil, fmt.Errorf("unsupported operation %q", op)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	form := url.Values{"CONFIG": {string(raw)}}

	if method == http.MethodPost {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}
	return http.NewRequestWithContext(ctx, method, endpoint+"?"+form.Encode(), nil)
}

// Columns maps a ticket onto the table's column names.
func Columns(t domain.Ticket) map[string]any {
	var ticketNo any = t.TicketNo
	if n, err := strconv.Atoi(t.TicketNo); err == nil {
		ticketNo = n
	}
	return map[string]any{
		"ID":            t.ID,
		"Ticket_No":     ticketNo,
		"Ticket_Date":   t.TicketDate,
		"Requested_By":  t.RequestedBy,
		"Department":    t.Department,
		"To_Dept":       t.ToDept,
		"Description":   t.Description,
		"Priority":      string(t.Priority),
		"Status":        string(t.Status),
		"Assigned_To":   t.AssignedTo,
		"Assigned_Date": t.AssignedDate,
		"Completed_By":  t.CompletedBy,
		"Completed_On":  t.CompletedOn,
	}
}

// Criteria selects the row holding ticket id.
func Criteria(id string) string {
	return fmt.Sprintf(`"ID"='%s'`, strings.ReplaceAll(id, "'", "''"))
}
