package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"freelanceflow/internal/core"
	"freelanceflow/internal/log"
)

var ErrSheetsDisabled = errors.New("spreadsheet export not configured")

// SheetsConfig locates the spreadsheet and the service account used to write it.
type SheetsConfig struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Sheets appends transactions to a Google spreadsheet, one row each:
// user, date, type, source, amount, tags, notes, transaction id.
type Sheets struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// NewSheets builds the exporter from a service account. Extra client options
// are passed to the Sheets service as is.
func NewSheets(ctx context.Context, cfg SheetsConfig, logger *log.Logger, opts ...goption.ClientOption) (*Sheets, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	if len(opts) == 0 {
		creds, err := serviceAccountCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger = logger.WithComponent(log.ComponentExport)
	logger.InfoContext(ctx, "Google Sheets exporter ready", "sheet", sheetName)
	return &Sheets{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: sheetName, logger: logger}, nil
}

// serviceAccountCredentials prefers inline JSON over a file, and falls back
// to GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountCredentials(cfg SheetsConfig) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func transactionRow(userID string, tx core.Transaction) []any {
	return []any{
		userID,
		tx.Date.Format(dateLayout),
		string(tx.Type),
		tx.Source,
		tx.Amount.StringFixed(2),
		strings.Join(tx.Tags, ","),
		tx.Notes,
		tx.ID,
	}
}

// AppendTransaction adds one row for tx.
func (s *Sheets) AppendTransaction(ctx context.Context, userID string, tx core.Transaction) error {
	_, err := s.append(ctx, [][]any{transactionRow(userID, tx)})
	return err
}

// ExportTransactions appends every transaction in a single call and returns
// the updated range.
func (s *Sheets) ExportTransactions(ctx context.Context, userID string, txs []core.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", nil
	}
	rows := make([][]any, 0, len(txs))
	for _, tx := range core.RecentTransactions(txs) {
		rows = append(rows, transactionRow(userID, tx))
	}
	ref, err := s.append(ctx, rows)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "Transactions exported", log.FieldUserID, userID, "rows", len(rows), "range", ref)
	return ref, nil
}

func (s *Sheets) append(ctx context.Context, rows [][]any) (string, error) {
	if s == nil || s.svc == nil {
		return "", ErrSheetsDisabled
	}
	rng := fmt.Sprintf("%s!A:H", s.sheetName)
	resp, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", s.sheetName, err)
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}
