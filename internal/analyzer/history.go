package analyzer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/goalscout/internal/pkg/models"
)

// DefaultHistorySize bounds the in-memory history.
const DefaultHistorySize = 200

// HistoryStore is an optional persistent sink for history records.
type HistoryStore interface {
	AppendRecord(ctx context.Context, rec models.AnalysisRecord) error
}

// History is a bounded ring of analysis records. Once full, the oldest record is overwritten.
type History struct {
	mu    sync.Mutex
	buf   []models.AnalysisRecord
	next  int
	full  bool
	store HistoryStore
	now   func() time.Time
}

// NewHistory creates a history holding at most size records. store may be nil.
func NewHistory(size int, store HistoryStore) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		buf:   make([]models.AnalysisRecord, size),
		store: store,
		now:   time.Now,
	}
}

// Append stores rec, filling in the id and timestamp when missing, and returns it.
// Sink failures are logged and do not fail the append.
func (h *History) Append(ctx context.Context, rec models.AnalysisRecord) models.AnalysisRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = h.now().UTC()
	}

	h.mu.Lock()
	h.buf[h.next] = rec
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
	h.mu.Unlock()

	if h.store != nil {
		if err := h.store.AppendRecord(ctx, rec); err != nil {
			slog.Warn("Failed to persist analysis history record", "id", rec.ID, "error", err)
		}
	}
	return rec
}

// Len returns the number of records held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// Last returns the newest n records in chronological order. n <= 0 returns all.
func (h *History) Last(n int) []models.AnalysisRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := h.next
	if h.full {
		count = len(h.buf)
	}
	if n <= 0 || n > count {
		n = count
	}

	out := make([]models.AnalysisRecord, 0, n)
	start := h.next - n
	if start < 0 {
		start += len(h.buf)
	}
	for i := 0; i < n; i++ {
		out = append(out, h.buf[(start+i)%len(h.buf)])
	}
	return out
}
