package retrieval

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/robfig/cron/v3"
)

// DocumentSource supplies the current full text of every document known to
// the host application, so the Reindexer can sweep them periodically.
type DocumentSource interface {
	AllDocuments(ctx context.Context) (map[document.ID]string, error)
}

// Reindexer runs a background cron sweep that passes every document the
// source lists to Indexer.IndexDocument, which skips documents whose content
// hash is unchanged; grounded in core/trigger.CronTrigger's
// cron.New(cron.WithSeconds()) + AddFunc pattern.
type Reindexer struct {
	indexer *Indexer
	source  DocumentSource
	log     *slog.Logger

	cron *cron.Cron
	once sync.Once
}

// NewReindexer builds an unscheduled sweep. Start takes the schedule as a
// 6-field cron expression with a leading seconds field (cron.WithSeconds),
// e.g. "0 */15 * * * *" for every 15 minutes.
func NewReindexer(indexer *Indexer, source DocumentSource, log *slog.Logger) *Reindexer {
	if log == nil {
		log = slog.Default()
	}
	return &Reindexer{indexer: indexer, source: source, log: log, cron: cron.New(cron.WithSeconds())}
}

// Start schedules the sweep at spec and begins running it; it stops when ctx
// is cancelled.
func (r *Reindexer) Start(ctx context.Context, spec string) error {
	_, err := r.cron.AddFunc(spec, func() { r.sweep(ctx) })
	if err != nil {
		return err
	}
	r.once.Do(func() {
		r.cron.Start()
		go func() {
			<-ctx.Done()
			r.cron.Stop()
		}()
	})
	return nil
}

func (r *Reindexer) sweep(ctx context.Context) {
	docs, err := r.source.AllDocuments(ctx)
	if err != nil {
		r.log.Error("reindex sweep: list documents", "error", err)
		return
	}
	for id, text := range docs {
		if err := r.indexer.IndexDocument(ctx, id, text); err != nil {
			r.log.Error("reindex sweep: index document", "document_id", id, "error", err)
		}
	}
}
