// Package confirm encodes a pending candidate transaction into the callback
// payload of the confirmation buttons. The process keeps no session for a
// presented receipt; the token carries everything the committer needs, so
// decoded tokens are treated as untrusted input.
package confirm

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Action is the choice a confirmation token carries.
type Action string

const (
	ActionAdd    Action = "a"
	ActionCancel Action = "c"
)

const (
	// Prefix namespaces confirmation tokens within callback payloads.
	Prefix = "confirm"

	// MaxTokenLen is the transport limit for a callback payload
	// (Telegram allows 64 bytes of callback data).
	MaxTokenLen = 64

	sep = ":"
)

// Candidate is the inferred transaction pending user approval.
type Candidate struct {
	Store string
	Total decimal.Decimal
}

// Encode serializes (action, store, total) into a token safe to embed in a
// callback payload. The store is base64url-encoded so it can never collide
// with the token's own delimiter.
func Encode(action Action, c Candidate) (string, error) {
	if action != ActionAdd && action != ActionCancel {
		return "", fmt.Errorf("unknown action %q", action)
	}
	tok := strings.Join([]string{
		Prefix,
		string(action),
		base64.RawURLEncoding.EncodeToString([]byte(c.Store)),
		c.Total.String(),
	}, sep)
	if len(tok) > MaxTokenLen {
		return "", fmt.Errorf("token is %d bytes, limit %d", len(tok), MaxTokenLen)
	}
	return tok, nil
}

// Decode parses a token back into (action, candidate). Every field is
// validated; a tampered or truncated token yields an error, never a panic.
func Decode(token string) (Action, Candidate, error) {
	parts := strings.Split(token, sep)
	if len(parts) != 4 || parts[0] != Prefix {
		return "", Candidate{}, fmt.Errorf("malformed confirmation token")
	}
	action := Action(parts[1])
	if action != ActionAdd && action != ActionCancel {
		return "", Candidate{}, fmt.Errorf("unknown action %q", parts[1])
	}
	store, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", Candidate{}, fmt.Errorf("decode store: %w", err)
	}
	total, err := decimal.NewFromString(parts[3])
	if err != nil {
		return "", Candidate{}, fmt.Errorf("decode total: %w", err)
	}
	if total.IsNegative() {
		return "", Candidate{}, fmt.Errorf("negative total in token")
	}
	return action, Candidate{Store: string(store), Total: total}, nil
}

// Match reports whether callback data looks like a confirmation token.
func Match(data string) bool {
	return strings.HasPrefix(data, Prefix+sep)
}

// FitStore trims the store name until a token for (store, total) fits
// MaxTokenLen. Trimming happens before encoding, so the round-trip law holds
// for the store that was actually presented.
func FitStore(store string, total decimal.Decimal) string {
	rs := []rune(store)
	for len(rs) > 0 {
		if _, err := Encode(ActionAdd, Candidate{Store: string(rs), Total: total}); err == nil {
			return string(rs)
		}
		rs = rs[:len(rs)-1]
	}
	return ""
}
