package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/bookplay/internal/book"
	"github.com/dgallion1/bookplay/internal/library"
	"github.com/dgallion1/bookplay/internal/parser"
)

// Worker processes a single upload job.
type Worker struct {
	repo       library.Repository
	log        *slog.Logger
	parserOpts parser.Options
	maxChars   int

	// storeMu guards the dedup check and the write. Workers of one
	// orchestrator share it.
	storeMu *sync.Mutex
}

func NewWorker(repo library.Repository, log *slog.Logger, parserOpts parser.Options, maxChapterChars int) *Worker {
	return &Worker{
		repo:       repo,
		log:        log,
		parserOpts: parserOpts,
		maxChars:   maxChapterChars,
		storeMu:    &sync.Mutex{},
	}
}

// Process parses the uploaded file, splits it into chapters and stores
// the result unless the same text is already in the library.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)
	start := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFileData()
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 2: Split into chapters
	job.SetStatus(StatusSplitting, "splitting")
	doc := book.FromTree(tree, w.maxChars)
	if job.Title != "" {
		doc.Title = job.Title
	}
	summary := doc.Summarize()
	job.SetResult(summary.Chapters, summary.Chars)
	log.Info("split document", "chapters", summary.Chapters, "chars", summary.Chars)

	if len(doc.Chapters) == 0 {
		log.Warn("no chapters produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "splitting")
		return
	}

	// Dedup on the parsed text, so re-encoded copies of a book match.
	hash := book.ContentHash(doc.Text())
	job.SetContentHash(hash)

	w.storeMu.Lock()
	defer w.storeMu.Unlock()
	existing, found, err := w.repo.FindByHash(ctx, hash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if found {
		log.Info("duplicate document, skipping", "existing_doc_id", existing)
		job.MarkDuplicate(existing)
		return
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	doc.ID = job.DocID
	doc.Source = job.Filename
	doc.ContentHash = hash
	doc.CreatedAt = time.Now().UTC()
	if err := w.repo.Put(ctx, doc); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("document stored", "title", doc.Title, "duration_ms", time.Since(start).Milliseconds())
}
