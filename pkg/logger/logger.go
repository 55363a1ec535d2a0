// Package logger collapses bursts of identical log messages. Bulk ingestion
// can skip hundreds of duplicate rows in a row; one line with a count is
// enough.
package logger

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var dedup = &deduplicator{
	flushDelay: 2 * time.Second,
}

type deduplicator struct {
	mu         sync.Mutex
	lastMsg    string
	count      int
	flushDelay time.Duration
	timer      *time.Timer
}

func (d *deduplicator) flush() {
	if d.count == 0 {
		return
	}
	if d.count == 1 {
		log.Info(d.lastMsg)
	} else {
		log.WithField("repeats", d.count).Info(d.lastMsg)
	}
	d.count = 0
	d.lastMsg = ""
}

// Dedup logs msg at info level, folding consecutive identical messages into
// a single line with a repeat count once the burst goes quiet.
func Dedup(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	dedup.mu.Lock()
	defer dedup.mu.Unlock()

	if msg == dedup.lastMsg {
		dedup.count++
		if dedup.timer != nil {
			dedup.timer.Stop()
		}
		dedup.timer = time.AfterFunc(dedup.flushDelay, func() {
			dedup.mu.Lock()
			defer dedup.mu.Unlock()
			dedup.flush()
		})
		return
	}

	dedup.flush()
	dedup.lastMsg = msg
	dedup.count = 1
	dedup.timer = time.AfterFunc(dedup.flushDelay, func() {
		dedup.mu.Lock()
		defer dedup.mu.Unlock()
		dedup.flush()
	})
}
