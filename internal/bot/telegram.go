package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Gateway adapts the Telegram Bot API to the interfaces the pipeline
// depends on: status messages, confirmation buttons, file downloads.
type Gateway struct {
	api    *tgbotapi.BotAPI
	http   *http.Client
	logger *slog.Logger
}

func NewGateway(api *tgbotapi.BotAPI, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{api: api, http: http.DefaultClient, logger: logger}
}

// Send posts a new message and returns its id.
func (g *Gateway) Send(chatID int64, text string) (int, error) {
	sent, err := g.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// Edit replaces the text of an earlier message.
func (g *Gateway) Edit(chatID int64, messageID int, text string) error {
	if _, err := g.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// PresentChoice replaces the message with text plus Yes/No inline buttons.
func (g *Gateway) PresentChoice(chatID int64, messageID int, text, approveToken, cancelToken string) error {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes", approveToken),
			tgbotapi.NewInlineKeyboardButtonData("❌ No", cancelToken),
		),
	)
	if _, err := g.api.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)); err != nil {
		return fmt.Errorf("present choice: %w", err)
	}
	return nil
}

// Download fetches a Telegram file by id into dest.
func (g *Gateway) Download(ctx context.Context, fileID, dest string) error {
	url, err := g.api.GetFileDirectURL(fileID)
	if err != nil {
		return fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch file: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.Warn("telegram.download_body_close_error", "error", cerr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch file: status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return out.Close()
}

// SendDocument delivers a file attachment, used for exports.
func (g *Gateway) SendDocument(chatID int64, name string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := g.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}
