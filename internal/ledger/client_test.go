package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	mu       sync.Mutex
	requests []string
	txBody   map[string]any

	failLogin  bool
	failCreate bool
	failSync   bool
}

func (f *fakeLedger) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()

		switch r.URL.Path {
		case "/account/login":
			if f.failLogin {
				http.Error(w, "bad password", http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"data":{"token":"tok-123"}}`))
		case "/v1/budgets/budget-1/transactions":
			assert.Equal(t, "tok-123", r.Header.Get("X-Actual-Token"))
			if f.failCreate {
				http.Error(w, "invalid account", http.StatusBadRequest)
				return
			}
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.mu.Lock()
			f.txBody = body
			f.mu.Unlock()
			_, _ = w.Write([]byte(`{"data":{"id":"tx-42"}}`))
		case "/v1/budgets/budget-1/sync":
			assert.Equal(t, "tok-123", r.Header.Get("X-Actual-Token"))
			if f.failSync {
				http.Error(w, "sync failed", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		case "/account/logout":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}
}

func (f *fakeLedger) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestClient(url string) *Client {
	return New(Config{
		BaseURL:  url,
		Password: "secret",
		FileID:   "budget-1",
		Account:  "Checking",
		Payee:    "Receipts Bot",
	}, nil)
}

func TestCommitSignConvention(t *testing.T) {
	f := &fakeLedger{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	c := newTestClient(srv.URL)
	tx, err := c.Commit(context.Background(), "Acme", decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	assert.Equal(t, "tx-42", tx.ID)
	assert.Equal(t, "Checking", tx.Account)
	assert.Equal(t, "Receipts Bot", tx.Payee)
	assert.Equal(t, "Acme", tx.Notes)
	assert.Equal(t, "-12.5", tx.Amount.String())
	assert.Equal(t, time.Now().Format("2006-01-02"), tx.Date.Format("2006-01-02"))

	// wire body: debit in minor units, dated today, store in notes
	assert.Equal(t, "Acme", f.txBody["notes"])
	assert.Equal(t, "Checking", f.txBody["account"])
	assert.Equal(t, "Receipts Bot", f.txBody["payee_name"])
	assert.Equal(t, float64(-1250), f.txBody["amount"])
	assert.Equal(t, time.Now().Format("2006-01-02"), f.txBody["date"])

	assert.Equal(t, []string{
		"POST /account/login",
		"POST /v1/budgets/budget-1/transactions",
		"POST /v1/budgets/budget-1/sync",
		"POST /account/logout",
	}, f.calls())
}

func TestCommitClosesSessionOnCreateFailure(t *testing.T) {
	f := &fakeLedger{failCreate: true}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Commit(context.Background(), "Acme", decimal.RequireFromString("5.00"))
	require.Error(t, err)

	assert.Equal(t, []string{
		"POST /account/login",
		"POST /v1/budgets/budget-1/transactions",
		"POST /account/logout",
	}, f.calls())
}

func TestCommitClosesSessionOnSyncFailure(t *testing.T) {
	f := &fakeLedger{failSync: true}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Commit(context.Background(), "Acme", decimal.RequireFromString("5.00"))
	require.Error(t, err)

	calls := f.calls()
	assert.Equal(t, "POST /account/logout", calls[len(calls)-1])
}

func TestCommitLoginFailure(t *testing.T) {
	f := &fakeLedger{failLogin: true}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Commit(context.Background(), "Acme", decimal.RequireFromString("5.00"))
	assert.ErrorContains(t, err, "open ledger session")
	assert.Equal(t, []string{"POST /account/login"}, f.calls())
}

func TestCommitRefusesNegativeTotal(t *testing.T) {
	f := &fakeLedger{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Commit(context.Background(), "Acme", decimal.RequireFromString("-1.00"))
	assert.Error(t, err)
	assert.Empty(t, f.calls(), "no session should be opened")
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	f := &fakeLedger{}
	srv := httptest.NewServer(f.handler(t))
	defer srv.Close()

	c := newTestClient(srv.URL)
	s, err := c.Open(context.Background())
	require.NoError(t, err)

	s.Close()
	s.Close()

	logouts := 0
	for _, call := range f.calls() {
		if call == "POST /account/logout" {
			logouts++
		}
	}
	assert.Equal(t, 1, logouts)
}
