package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mbalogun/receipt2ledger/internal/history"
)

// Source is where exported rows come from.
type Source interface {
	List(ctx context.Context) ([]history.Record, error)
}

// Service produces XLSX bytes from the bot's transaction history.
type Service struct {
	source Source
	logger *slog.Logger
}

func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// ExportXLSX returns an XLSX workbook (as bytes) with every recorded transaction.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Transactions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on Transactions.
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Date",
		"Store",
		"Amount",
		"Account",
		"Payee",
		"Ledger ID",
		"Recorded At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.TxDate.Format("2006-01-02"))
		write(2, r.Store)
		write(3, r.Amount.String())
		write(4, r.Account)
		write(5, r.Payee)
		write(6, r.LedgerID)
		write(7, r.CreatedAt.Format(time.RFC3339))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // store
	_ = f.SetColWidth(sheet, "C", "C", 12) // amount
	_ = f.SetColWidth(sheet, "D", "E", 18) // account, payee
	_ = f.SetColWidth(sheet, "F", "F", 38) // ledger id
	_ = f.SetColWidth(sheet, "G", "G", 22) // recorded at

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
