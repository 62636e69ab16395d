package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const storeBatchSize = 50

// StoreHandler is an slog.Handler that batches ERROR+ records into the
// system_logs table.
type StoreHandler struct {
	sink *storeSink
	// attributes added through WithAttrs
	attrs []slog.Attr
}

type storeSink struct {
	db      *gorm.DB
	mu      sync.Mutex
	buffer  []models.SystemLog
	ticker  *time.Ticker
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewStoreHandler(db *gorm.DB, interval time.Duration) *StoreHandler {
	sink := &storeSink{
		db:      db,
		buffer:  make([]models.SystemLog, 0, storeBatchSize),
		ticker:  time.NewTicker(interval),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go sink.flushLoop()
	return &StoreHandler{sink: sink}
}

func (s *storeSink) flushLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *storeSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, storeBatchSize)
	s.mu.Unlock()

	if err := s.db.CreateInBatches(batch, storeBatchSize).Error; err != nil {
		// written with the stdout handler only, so a failing store cannot loop
		slog.New(NewStdoutHandler("error")).Error("failed to flush system logs", "error", err, "count", len(batch))
	}
}

// Flush writes buffered records now.
func (h *StoreHandler) Flush() {
	h.sink.flush()
}

// Stop ends the background loop and returns once the buffered records are
// written, so the pool can be closed right after.
func (h *StoreHandler) Stop() {
	h.sink.once.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
	<-h.sink.stopped
}

// Enabled only handles ERROR and above.
func (h *StoreHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *StoreHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "caller_id":
			s := a.Value.String()
			entry.CallerID = &s
		case "operation":
			entry.Operation = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.sink.mu.Lock()
	h.sink.buffer = append(h.sink.buffer, entry)
	needFlush := len(h.sink.buffer) >= storeBatchSize
	h.sink.mu.Unlock()

	if needFlush {
		go h.sink.flush()
	}
	return nil
}

func (h *StoreHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &StoreHandler{sink: h.sink, attrs: merged}
}

// WithGroup is ignored; system_logs rows are flat.
func (h *StoreHandler) WithGroup(name string) slog.Handler {
	return h
}
