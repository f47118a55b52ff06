package pipeline

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mbalogun/receipt2ledger/internal/ledger"
)

// Messenger is the chat surface the pipeline reports progress through.
type Messenger interface {
	// Send posts a new message and returns its id for later edits.
	Send(chatID int64, text string) (int, error)
	// Edit replaces the text of an earlier message.
	Edit(chatID int64, messageID int, text string) error
	// PresentChoice replaces the message with text plus approve/cancel
	// buttons carrying the given callback tokens.
	PresentChoice(chatID int64, messageID int, text, approveToken, cancelToken string) error
}

// Committer writes one approved candidate to the ledger.
type Committer interface {
	Commit(ctx context.Context, store string, total decimal.Decimal) (ledger.Transaction, error)
}
