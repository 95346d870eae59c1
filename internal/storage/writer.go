package storage

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/qepting91/frontpage-watch/internal/domain"
	"github.com/qepting91/frontpage-watch/internal/logger"
)

// JournalWriter appends dispositions to FilePath as NDJSON. It is the only
// goroutine touching the file; producers hand it records over a channel.
type JournalWriter struct {
	FilePath string
	Log      logger.Logger
}

// Start drains input until it is closed. If the file cannot be opened or a
// write fails the remaining records are still drained so producers never block.
func (w *JournalWriter) Start(wg *sync.WaitGroup, input <-chan domain.Disposition) {
	defer wg.Done()

	f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		w.Log.Error("Open journal failed", logger.String("path", w.FilePath), logger.Error(err))
		for range input {
		}
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	failed := false
	for rec := range input {
		if failed {
			continue
		}
		if err := enc.Encode(rec); err != nil {
			w.Log.Error("Write journal failed", logger.String("path", w.FilePath), logger.Error(err))
			failed = true
		}
	}
}
