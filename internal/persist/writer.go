package persist

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Writer encodes state snapshots as JSON and hands them to a Queue. It never
// blocks on storage and never reports a failure to the caller.
type Writer struct {
	queue  *Queue
	logger *zap.Logger
}

func NewWriter(q *Queue, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{queue: q, logger: logger.Named("persist")}
}

// Save encodes v right away, so later changes to v are not persisted.
func (w *Writer) Save(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.logger.Error("encode_failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := w.queue.Set(key, string(data)); err != nil {
		w.logger.Warn("write_dropped", zap.String("key", key), zap.Error(err))
	}
}

func (w *Writer) Remove(key string) {
	if err := w.queue.Delete(key); err != nil {
		w.logger.Warn("delete_dropped", zap.String("key", key), zap.Error(err))
	}
}
