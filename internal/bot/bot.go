// Package bot is the Telegram front end: it routes updates to the receipt
// pipeline and enforces the user allowlist.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mbalogun/receipt2ledger/constants"
	"github.com/mbalogun/receipt2ledger/internal/confirm"
	"github.com/mbalogun/receipt2ledger/internal/pipeline"
)

const msgUnauthorized = "❌ You are not authorized to use this bot."

const msgHelp = "Send me a photo of a receipt and I will add it to your ledger.\n\n" +
	"/export - download your transaction history as a spreadsheet\n" +
	"/myid - show your Telegram user id"

// Exporter produces the spreadsheet behind /export.
type Exporter interface {
	ExportXLSX(ctx context.Context) ([]byte, error)
}

type Bot struct {
	api       *tgbotapi.BotAPI
	gw        *Gateway
	processor *pipeline.Processor
	exporter  Exporter // nil when history is disabled
	allowed   map[int64]struct{}
	logger    *slog.Logger
}

func New(api *tgbotapi.BotAPI, gw *Gateway, processor *pipeline.Processor, exporter Exporter, allowedUserIDs []int64, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[int64]struct{}, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = struct{}{}
	}
	return &Bot{
		api:       api,
		gw:        gw,
		processor: processor,
		exporter:  exporter,
		allowed:   allowed,
		logger:    logger,
	}
}

// Run consumes updates until ctx is cancelled. Each update is handled in
// its own goroutine so a slow OCR or LLM call never blocks other chats.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot.started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot.stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) authorized(userID int64) bool {
	// An empty allowlist admits nobody; the bot is never open.
	_, ok := b.allowed[userID]
	return ok
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	// /myid answers everyone, so users can ask to be allowlisted.
	if msg.Command() == "myid" {
		b.reply(chatID, fmt.Sprintf("Your Telegram user id is %d", userID))
		return
	}

	if !b.authorized(userID) {
		b.logger.Warn("bot.unauthorized", "user_id", userID, "chat_id", chatID)
		b.reply(chatID, msgUnauthorized)
		return
	}

	switch {
	case msg.Command() == "export":
		b.handleExport(ctx, chatID)

	case len(msg.Photo) > 0:
		// Telegram orders photo sizes smallest first; take the largest.
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		b.process(ctx, chatID, fileID, "receipt.jpg")

	case msg.Document != nil:
		doc := msg.Document
		ext := filepath.Ext(doc.FileName)
		if ext != "" && !constants.IsSupportedImageExt(ext) {
			b.reply(chatID, pipeline.MsgImagesOnly)
			return
		}
		b.process(ctx, chatID, doc.FileID, doc.FileName)

	default:
		b.reply(chatID, msgHelp)
	}
}

func (b *Bot) process(ctx context.Context, chatID int64, fileID, filename string) {
	if err := b.processor.ProcessReceipt(ctx, chatID, fileID, filename); err != nil {
		b.logger.Error("bot.process_failed", "chat_id", chatID, "file_id", fileID, "error", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Ack first so the button stops spinning whatever happens next.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("bot.callback_ack_failed", "error", err)
	}

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	if !b.authorized(cb.From.ID) {
		b.logger.Warn("bot.unauthorized_callback", "user_id", cb.From.ID)
		return
	}

	if !confirm.Match(cb.Data) {
		b.logger.Warn("bot.unknown_callback", "data", cb.Data)
		return
	}

	if err := b.processor.HandleConfirmation(ctx, chatID, cb.Message.MessageID, cb.Data); err != nil {
		b.logger.Error("bot.confirmation_failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	if b.exporter == nil {
		b.reply(chatID, "Transaction history is not enabled on this bot.")
		return
	}

	data, err := b.exporter.ExportXLSX(ctx)
	if err != nil {
		b.logger.Error("bot.export_failed", "chat_id", chatID, "error", err)
		b.reply(chatID, "❌ Export failed. Please try again.")
		return
	}

	name := fmt.Sprintf("transactions-%s.xlsx", time.Now().Format("2006-01-02"))
	if err := b.gw.SendDocument(chatID, name, data); err != nil {
		b.logger.Error("bot.export_send_failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.gw.Send(chatID, text); err != nil {
		b.logger.Warn("bot.reply_failed", "chat_id", chatID, "error", err)
	}
}
