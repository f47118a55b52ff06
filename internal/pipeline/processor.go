// Package pipeline drives a receipt from uploaded image to committed ledger
// transaction: download, OCR, field inference, confirmation, commit.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mbalogun/receipt2ledger/internal/common"
	"github.com/mbalogun/receipt2ledger/internal/confirm"
	"github.com/mbalogun/receipt2ledger/internal/extract"
	"github.com/mbalogun/receipt2ledger/internal/history"
	"github.com/mbalogun/receipt2ledger/internal/ingest"
	"github.com/mbalogun/receipt2ledger/internal/llm"
	"github.com/mbalogun/receipt2ledger/internal/money"
)

// Processor coordinates the stages and reports progress by editing one
// status message per receipt.
type Processor struct {
	logger     *slog.Logger
	ingestor   *ingest.Ingestor
	ocr        extract.TextExtractor
	inferencer llm.FieldInferencer
	committer  Committer
	history    history.Recorder // optional
	messenger  Messenger
}

func NewProcessor(
	logger *slog.Logger,
	ingestor *ingest.Ingestor,
	ocr extract.TextExtractor,
	inferencer llm.FieldInferencer,
	committer Committer,
	recorder history.Recorder,
	messenger Messenger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:     logger,
		ingestor:   ingestor,
		ocr:        ocr,
		inferencer: inferencer,
		committer:  committer,
		history:    recorder,
		messenger:  messenger,
	}
}

// ProcessReceipt runs a receipt through download, OCR and field inference,
// ending in either a confirmation prompt or a terminal status message.
// User-visible rejections (unsupported extension, unparsable total) are
// reported in chat and are not errors.
func (p *Processor) ProcessReceipt(ctx context.Context, chatID int64, fileID, filename string) error {
	reqID := uuid.NewString()
	log := p.logger.With("req_id", reqID, "chat_id", chatID, "file_id", fileID)
	log.Info("pipeline.receipt.start", "filename", filename)

	msgID, err := p.messenger.Send(chatID, msgProcessing)
	if err != nil {
		return err
	}

	path, err := p.ingestor.Ingest(ctx, fileID, filename)
	if err != nil {
		if errors.Is(err, common.ErrUnsupportedExtension) {
			log.Info("pipeline.receipt.rejected", "reason", "unsupported_extension")
			return p.messenger.Edit(chatID, msgID, MsgImagesOnly)
		}
		log.Error("pipeline.ingest.failed", "error", err)
		p.edit(chatID, msgID, msgProcessingError)
		return err
	}

	// The scratch image is only needed for OCR; remove it on every exit
	// path, including failed status edits.
	defer p.ingestor.Cleanup(path)

	if err := p.messenger.Edit(chatID, msgID, msgDownloaded); err != nil {
		return err
	}

	res, err := p.ocr.Extract(ctx, path)
	if err != nil {
		log.Error("pipeline.ocr.failed", "error", err)
		p.edit(chatID, msgID, msgProcessingError)
		return err
	}
	log.Info("pipeline.ocr.ok", "method", res.Method, "chars", len(res.Text))

	if err := p.messenger.Edit(chatID, msgID, msgExtracted); err != nil {
		return err
	}

	fields, err := p.inferencer.Infer(ctx, res.Text)
	if err != nil {
		log.Error("pipeline.llm.failed", "error", err)
		p.edit(chatID, msgID, msgProcessingError)
		return err
	}
	log.Info("pipeline.llm.ok", "store", fields.Store, "total", fields.Total)

	total, perr := money.ParseAmount(fields.Total)
	if perr != nil || total.IsZero() {
		log.Warn("pipeline.total.unusable",
			"total", fields.Total,
			"receipt_text", res.Text,
		)
		return p.messenger.Edit(chatID, msgID, msgNoTotal)
	}

	store := confirm.FitStore(fields.Store, total)
	approve, err := confirm.Encode(confirm.ActionAdd, confirm.Candidate{Store: store, Total: total})
	if err != nil {
		return err
	}
	cancel, err := confirm.Encode(confirm.ActionCancel, confirm.Candidate{Store: store, Total: total})
	if err != nil {
		return err
	}

	log.Info("pipeline.candidate.presented", "store", store, "total", total.String())
	return p.messenger.PresentChoice(chatID, msgID, analysisText(store, fields.Total), approve, cancel)
}

// HandleConfirmation resolves a pressed confirmation button. The token is
// untrusted: anything that fails to decode gets a neutral reply. A stale
// token for an already-committed candidate will commit again; the process
// keeps no per-receipt session to detect that.
func (p *Processor) HandleConfirmation(ctx context.Context, chatID int64, messageID int, token string) error {
	action, cand, err := confirm.Decode(token)
	if err != nil {
		p.logger.Warn("pipeline.confirm.invalid_token", "chat_id", chatID, "error", err)
		return p.messenger.Edit(chatID, messageID, msgInvalidChoice)
	}

	if action == confirm.ActionCancel {
		p.logger.Info("pipeline.confirm.cancelled", "chat_id", chatID, "store", cand.Store)
		return p.messenger.Edit(chatID, messageID, msgCancelled)
	}

	if err := p.messenger.Edit(chatID, messageID, msgAdding); err != nil {
		return err
	}

	tx, err := p.committer.Commit(ctx, cand.Store, cand.Total)
	if err != nil {
		p.logger.Error("pipeline.commit.failed", "chat_id", chatID, "store", cand.Store, "error", err)
		return p.messenger.Edit(chatID, messageID, failureText(cand.Store, cand.Total.StringFixed(2), err))
	}

	if p.history != nil {
		rec := history.Record{
			TxDate:   tx.Date,
			Store:    cand.Store,
			Amount:   tx.Amount,
			Account:  tx.Account,
			Payee:    tx.Payee,
			LedgerID: tx.ID,
		}
		if herr := p.history.Record(ctx, rec); herr != nil {
			// The ledger already has the transaction; losing the local
			// copy is not worth failing the confirmation.
			p.logger.Warn("pipeline.history.record_failed", "error", herr)
		}
	}

	p.logger.Info("pipeline.commit.ok", "chat_id", chatID, "transaction_id", tx.ID, "amount", tx.Amount.String())
	return p.messenger.Edit(chatID, messageID, successText(cand.Store, cand.Total.StringFixed(2)))
}

func (p *Processor) edit(chatID int64, messageID int, text string) {
	if err := p.messenger.Edit(chatID, messageID, text); err != nil {
		p.logger.Warn("pipeline.status_edit_failed", "chat_id", chatID, "error", err)
	}
}
