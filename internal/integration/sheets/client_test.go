package sheets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/integration"
)

type fakeSheet struct {
	mu       sync.Mutex
	rows     [][]string
	appended [][]string
	updates  map[string][]string
	auth     []string
}

func (f *fakeSheet) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"sa-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v4/spreadsheets/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Sheet1!A:M", r.URL.Path)
			_ = json.NewEncoder(w).Encode(valueRange{Values: f.rows})
		case http.MethodPost:
			assert.Equal(t, "/v4/spreadsheets/sheet-1/values/Sheet1!A:M:append", r.URL.Path)
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			var body valueRange
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.appended = append(f.appended, body.Values...)
			_, _ = w.Write([]byte(`{}`))
		case http.MethodPut:
			var body valueRange
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.updates[body.Range] = body.Values[0]
			_, _ = w.Write([]byte(`{}`))
		}
	})
	return mux
}

func testConfig(baseURL string) config.SheetsConfig {
	return config.SheetsConfig{
		ClientEmail: "svc@example.iam.gserviceaccount.com",
		PrivateKey:  "unused",
		SheetID:     "sheet-1",
		Range:       "Sheet1!A:M",
		BaseURL:     baseURL + "/v4/spreadsheets",
		TokenURL:    baseURL + "/token",
	}
}

func sampleTicket() domain.Ticket {
	return domain.Ticket{
		ID:          "0190-abc",
		TicketNo:    "2",
		TicketDate:  "2026-10-01",
		RequestedBy: "Nithilla",
		Department:  "HR",
		ToDept:      "ICT",
		Description: "Printer offline",
		Priority:    domain.TicketPriorityHigh,
		Status:      domain.TicketStatusAssigned,
		AssignedTo:  "John Doe",
	}
}

func TestUpsertMissingCredentials(t *testing.T) {
	c := NewClient(config.SheetsConfig{}, nil, zaptest.NewLogger(t))

	res := c.Upsert(context.Background(), sampleTicket(), integration.OperationInsert)
	assert.Equal(t, integration.Result{Success: false, Error: "Credentials missing"}, res)
	assert.True(t, res.Permanent())
}

func TestUpsertInsertAppendsRowWithDashes(t *testing.T) {
	fake := &fakeSheet{updates: map[string][]string{}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client(), zaptest.NewLogger(t))
	c.now = func() time.Time { return time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC) }

	res := c.Upsert(context.Background(), sampleTicket(), integration.OperationInsert)
	require.True(t, res.Success, res.Error)

	require.Len(t, fake.appended, 1)
	assert.Equal(t, []string{
		"2", "2026-10-01", "Nithilla", "HR", "ICT", "High", "Printer offline", "Assigned",
		"John Doe", "-", "-", "-", "2026-10-01 09:30:00",
	}, fake.appended[0])
}

func TestUpsertUpdateRewritesMatchingRow(t *testing.T) {
	fake := &fakeSheet{
		rows:    [][]string{{"Ticket No"}, {"1"}, {"2"}},
		updates: map[string][]string{},
	}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client(), zaptest.NewLogger(t))

	res := c.Upsert(context.Background(), sampleTicket(), integration.OperationUpdate)
	require.True(t, res.Success, res.Error)

	row, ok := fake.updates["Sheet1!A3:M3"]
	require.True(t, ok)
	assert.Equal(t, "2", row[0])
	assert.Contains(t, row[12], "(Updated)")
}

func TestUpsertUpdateMissingRow(t *testing.T) {
	fake := &fakeSheet{rows: [][]string{{"1"}}, updates: map[string][]string{}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client(), zaptest.NewLogger(t))

	res := c.Upsert(context.Background(), sampleTicket(), integration.OperationUpdate)
	assert.False(t, res.Success)
	assert.Equal(t, "Ticket not found in sheet", res.Error)
	assert.False(t, res.Permanent())
}

func TestUpsertDeleteIsNoop(t *testing.T) {
	fake := &fakeSheet{updates: map[string][]string{}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client(), zaptest.NewLogger(t))

	res := c.Upsert(context.Background(), sampleTicket(), integration.OperationDelete)
	assert.True(t, res.Success)
	assert.Empty(t, fake.auth)
}

func TestServiceAccountTokenIsSent(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	fake := &fakeSheet{updates: map[string][]string{}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PrivateKey = string(keyPEM)
	c := NewClient(cfg, nil, zaptest.NewLogger(t))

	res := c.Upsert(context.Background(), sampleTicket(), integration.OperationInsert)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"Bearer sa-token"}, fake.auth)
}
