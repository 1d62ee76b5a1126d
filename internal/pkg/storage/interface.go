package storage

import (
	"context"

	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

// HistoryStorage persists analysis history records.
type HistoryStorage interface {
	// AppendRecord saves one record
	AppendRecord(ctx context.Context, rec models.AnalysisRecord) error

	// ListRecords returns the newest limit records, newest first
	ListRecords(ctx context.Context, limit int) ([]models.AnalysisRecord, error)

	// Close closes the database connection
	Close() error
}
