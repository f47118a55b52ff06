// receiptbotd runs the Telegram receipt bot: photo in, OCR and field
// inference, confirmation buttons, ledger transaction out.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/mbalogun/receipt2ledger/internal/bot"
	"github.com/mbalogun/receipt2ledger/internal/common"
	"github.com/mbalogun/receipt2ledger/internal/export"
	"github.com/mbalogun/receipt2ledger/internal/extract"
	"github.com/mbalogun/receipt2ledger/internal/history"
	"github.com/mbalogun/receipt2ledger/internal/ingest"
	"github.com/mbalogun/receipt2ledger/internal/ledger"
	"github.com/mbalogun/receipt2ledger/internal/llm/ollama"
	"github.com/mbalogun/receipt2ledger/internal/ocr"
	"github.com/mbalogun/receipt2ledger/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inferencer := ollama.NewClient(ollama.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	// Fail fast when the configured model is not installed.
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := inferencer.CheckModel(checkCtx)
	cancel()
	if err != nil {
		logger.Error("llm model unavailable", "model", cfg.LLM.Model, "error", err)
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		logger.Error("telegram auth failed", "error", err)
		os.Exit(1)
	}

	gw := bot.NewGateway(api, logger)
	ingestor := ingest.NewIngestor(cfg.Bot.DownloadDir, gw, logger)
	extractor := extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger), logger)
	committer := ledger.New(ledger.Config{
		BaseURL:  cfg.Ledger.BaseURL,
		Password: cfg.Ledger.Password,
		FileID:   cfg.Ledger.FileID,
		Account:  cfg.Ledger.Account,
		Payee:    cfg.Ledger.Payee,
		Timeout:  cfg.Ledger.Timeout,
	}, logger)

	var (
		recorder history.Recorder
		exporter bot.Exporter
	)
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path, logger)
		if err != nil {
			logger.Error("history db unavailable", "path", cfg.History.Path, "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Warn("history db close failed", "error", cerr)
			}
		}()
		recorder = store
		exporter = export.NewService(store, logger)
	}

	processor := pipeline.NewProcessor(logger, ingestor, extractor, inferencer, committer, recorder, gw)
	b := bot.New(api, gw, processor, exporter, cfg.Bot.AllowedUserIDs, logger)

	logger.Info("receiptbotd starting",
		"model", cfg.LLM.Model,
		"download_dir", cfg.Bot.DownloadDir,
		"allowed_users", len(cfg.Bot.AllowedUserIDs),
	)

	if err := b.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}
