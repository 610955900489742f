package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"trainerpass/guardian/pkg/config"
	"trainerpass/guardian/pkg/filter"
	"trainerpass/guardian/pkg/moderation"
	"trainerpass/guardian/pkg/telemetry/logging"
)

// Write outcomes reported to the Observer.
const (
	StatusStored  = "stored"
	StatusDropped = "dropped"
	StatusFailed  = "failed"
)

// Observer is notified of every record outcome.
type Observer interface {
	RecordModerationWrite(status string)
}

// Entry is a violation to record.
type Entry struct {
	RequestID     string
	Author        string
	Source        string
	Text          string
	Decision      *filter.Decision
	Action        moderation.Action
	PolicyVersion string
	ScannedAt     time.Time
}

// Recorder writes moderation records asynchronously. Records are queued on
// a buffered channel and written by a single worker.
type Recorder struct {
	storage    moderation.Storage
	config     config.RecorderConfig
	observer   Observer
	recordChan chan *moderation.Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger

	// mu is held for reading across every send on recordChan and for
	// writing while closed flips, so no send can land after the drain.
	mu     sync.RWMutex
	closed bool
}

// New creates a recorder and starts its worker. observer may be nil.
func New(storage moderation.Storage, cfg config.RecorderConfig, observer Observer) *Recorder {
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = config.DefaultModerationRecorderAsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultModerationRecorderWriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		observer:   observer,
		recordChan: make(chan *moderation.Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "moderation.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("moderation recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
		"redact_matches", cfg.RedactMatches,
	)
	return r
}

// NewRecord builds the record for an entry without queueing it.
func (r *Recorder) NewRecord(e Entry) *moderation.Record {
	scannedAt := e.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now()
	}

	record := &moderation.Record{
		ID:            uuid.New().String(),
		RequestID:     e.RequestID,
		Author:        e.Author,
		Source:        e.Source,
		ScannedAt:     scannedAt.UTC(),
		Action:        e.Action,
		TextHash:      HashText(e.Text),
		TextLength:    utf8.RuneCountInString(e.Text),
		PolicyVersion: e.PolicyVersion,
	}

	if d := e.Decision; d != nil {
		record.RuleID = d.RuleID
		record.Category = string(d.Category)
		record.Severity = string(d.Severity)
		record.Label = d.Label

		match := Truncate(d.Match, r.config.MaxMatchLength)
		if r.config.RedactMatches {
			match = logging.Mask(match)
		}
		record.Match = match
	}
	return record
}

// Record queues a record for the entry. It returns without waiting for the
// write. When the queue stays full for WriteTimeout, or the recorder is
// closed, the record is dropped and a *moderation.RecorderError is returned.
func (r *Recorder) Record(ctx context.Context, e Entry) (string, error) {
	record := r.NewRecord(e)

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.observe(StatusDropped)
		return record.ID, moderation.NewRecorderError(record.ID, context.Canceled)
	}

	select {
	case r.recordChan <- record:
		return record.ID, nil
	case <-timer.C:
		r.logger.Error("moderation record channel full, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		r.observe(StatusDropped)
		return record.ID, moderation.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-ctx.Done():
		r.observe(StatusDropped)
		return record.ID, moderation.NewRecorderError(record.ID, ctx.Err())
	}
}

// Pending returns the number of queued records.
func (r *Recorder) Pending() int {
	return len(r.recordChan)
}

// Close stops accepting records and waits until queued ones are written.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down moderation recorder")
		r.mu.Lock()
		r.closed = true
		close(r.done)
		r.mu.Unlock()
		r.wg.Wait()
		r.logger.Info("moderation recorder shut down complete")
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *moderation.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	record.RecordedAt = start.UTC()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store moderation record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		r.observe(StatusFailed)
		return
	}
	r.observe(StatusStored)

	duration := time.Since(start)
	r.logger.Debug("moderation record stored",
		"record_id", record.ID,
		"rule_id", record.RuleID,
		"action", record.Action,
		"duration_ms", duration.Milliseconds(),
	)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow moderation record write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

func (r *Recorder) observe(status string) {
	if r.observer != nil {
		r.observer.RecordModerationWrite(status)
	}
}
