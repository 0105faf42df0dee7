package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/stockscan/internal/config"
)

// Repository defines the read operations supported by the Google Sheets adapter.
type Repository interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	r.logger.Debug("range read from sheet", zap.String("range", sheetRange), zap.Int("rows", len(resp.Values)))
	return resp.Values, nil
}
