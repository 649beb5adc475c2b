package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/digkill/PresetStore/internal/models"
)

// Uploader stores a rendered report and returns where it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// ReportService exports the developer ledger. A nil uploader disables exports.
type ReportService struct {
	log       *slog.Logger
	purchases *PurchaseService
	uploader  Uploader
}

func NewReportService(log *slog.Logger, purchases *PurchaseService, uploader Uploader) *ReportService {
	return &ReportService{log: log, purchases: purchases, uploader: uploader}
}

func (s *ReportService) Enabled() bool {
	return s.uploader != nil
}

// ExportLedger uploads the developer ledger as CSV and returns its URL.
func (s *ReportService) ExportLedger(ctx context.Context) (string, error) {
	if s.uploader == nil {
		return "", ErrExportDisabled
	}
	ledger, err := s.purchases.DeveloperLedger(ctx)
	if err != nil {
		return "", err
	}
	data, err := RenderLedgerCSV(ledger)
	if err != nil {
		return "", err
	}
	url, err := s.uploader.Upload(ctx, data, "text/csv")
	if err != nil {
		return "", fmt.Errorf("export ledger: %w", err)
	}
	s.log.Info("developer ledger exported", "url", url, "purchases", len(ledger.Transactions))
	return url, nil
}

// RenderLedgerCSV writes one row per purchase followed by a total row. Credentials are
// left out of the export.
func RenderLedgerCSV(ledger *models.DeveloperLedger) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"id", "timestamp", "username", "plan_id", "account_type", "amount", "status"}}
	for _, trx := range ledger.Transactions {
		rows = append(rows, []string{
			trx.ID,
			trx.Timestamp.UTC().Format(time.RFC3339),
			trx.Username,
			trx.PlanID,
			string(trx.AccountType),
			strconv.FormatInt(trx.Amount, 10),
			string(trx.Status),
		})
	}
	rows = append(rows, []string{"total", "", "", "", "", strconv.FormatInt(ledger.Balance, 10), ""})
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("render ledger csv: %w", err)
	}
	return buf.Bytes(), nil
}
