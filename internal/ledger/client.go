// Package ledger talks to an Actual-style budget server. Every commit is a
// single scoped session: login, create transaction, sync, logout.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const tokenHeader = "X-Actual-Token"

// Config for the ledger client.
type Config struct {
	BaseURL  string
	Password string
	FileID   string // budget file identifier
	Account  string // sink account for receipt debits
	Payee    string
	Timeout  time.Duration
}

// Transaction is the record the ledger service accepted.
type Transaction struct {
	ID      string
	Date    time.Time
	Account string
	Payee   string
	Notes   string
	Amount  decimal.Decimal // negative for debits
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Commit writes one approved candidate to the ledger: a debit of total
// against the configured account, dated today, with the store as notes.
// The session is closed on every exit path.
func (c *Client) Commit(ctx context.Context, store string, total decimal.Decimal) (Transaction, error) {
	// Defensive re-check: the token is untrusted input.
	if total.IsNegative() {
		return Transaction{}, fmt.Errorf("refusing to commit negative total %s", total)
	}

	session, err := c.Open(ctx)
	if err != nil {
		return Transaction{}, fmt.Errorf("open ledger session: %w", err)
	}
	defer session.Close()

	tx, err := session.CreateTransaction(ctx, time.Now(), c.cfg.Account, c.cfg.Payee, store, total.Neg())
	if err != nil {
		return Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if err := session.Commit(ctx); err != nil {
		return Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	c.logger.Info("ledger.commit.ok",
		"transaction_id", tx.ID,
		"account", tx.Account,
		"amount", tx.Amount.String(),
	)
	return tx, nil
}

// Session is an authenticated conversation with the ledger server.
type Session struct {
	c      *Client
	token  string
	closed bool
}

// Open logs in with the configured password and returns a session.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/account/login",
		map[string]string{"password": c.cfg.Password}, "", &out)
	if err != nil {
		return nil, err
	}
	if out.Data.Token == "" {
		return nil, fmt.Errorf("login succeeded but no session token returned")
	}
	c.logger.Debug("ledger.session.opened")
	return &Session{c: c, token: out.Data.Token}, nil
}

// CreateTransaction stages a transaction in the budget file. Amounts are sent
// in minor units, as the server expects.
func (s *Session) CreateTransaction(ctx context.Context, date time.Time, account, payee, notes string, amount decimal.Decimal) (Transaction, error) {
	if s.closed {
		return Transaction{}, fmt.Errorf("session already closed")
	}

	body := map[string]any{
		"date":       date.Format("2006-01-02"),
		"account":    account,
		"payee_name": payee,
		"notes":      notes,
		"amount":     amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/v1/budgets/%s/transactions", s.c.cfg.FileID)
	if err := s.c.doJSON(ctx, http.MethodPost, path, body, s.token, &out); err != nil {
		return Transaction{}, err
	}

	return Transaction{
		ID:      out.Data.ID,
		Date:    date,
		Account: account,
		Payee:   payee,
		Notes:   notes,
		Amount:  amount,
	}, nil
}

// Commit flushes staged changes to the budget file.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("session already closed")
	}
	path := fmt.Sprintf("/v1/budgets/%s/sync", s.c.cfg.FileID)
	return s.c.doJSON(ctx, http.MethodPost, path, struct{}{}, s.token, nil)
}

// Close logs out. Best effort: a failed logout is logged, never surfaced,
// and Close is safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.c.doJSON(ctx, http.MethodPost, "/account/logout", struct{}{}, s.token, nil); err != nil {
		s.c.logger.Warn("ledger.session.close_failed", "error", err)
		return
	}
	s.c.logger.Debug("ledger.session.closed")
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, token string, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ledger http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.logger.Warn("ledger.response_body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("ledger status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode ledger response: %w", err)
		}
	}
	return nil
}
