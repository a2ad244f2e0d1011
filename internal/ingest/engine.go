package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/pellmark/skein/internal/store"
)

// Options configures an ingestion run.
type Options struct {
	Batch     string // provenance label; defaults to a generated run id
	Workers   int    // concurrent taggers; defaults to NumCPU
	QueueSize int    // bounded line queue between reader and workers
	MaxLines  int    // stop after this many lines; 0 = no cap
	DryRun    bool   // tag but don't store
}

// Normalize fills in defaults for zero-valued options.
func (o *Options) Normalize() {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Batch == "" {
		o.Batch = "run-" + uuid.NewString()[:8]
	}
}

// Engine drives ingestion: a single reader goroutine feeds a bounded
// queue, and a pool of workers tags and stores each record. Subject
// identity under this concurrency relies on the store's atomic
// insert-or-get, not on any ordering between workers.
type Engine struct {
	st  store.Store
	log *slog.Logger
}

// NewEngine creates an ingestion engine on the given store.
func NewEngine(st store.Store, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{st: st, log: log.With("component", "ingest")}
}

type line struct {
	number int
	data   []byte
}

// Run ingests one JSONL stream. Per-record failures are recorded in the
// result and logged, never fatal; only reader errors abort the run.
func (e *Engine) Run(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	opts.Normalize()

	jobs := make(chan line, opts.QueueSize)
	results := make(chan *Result, opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := &Result{}
			for l := range jobs {
				e.processLine(ctx, l, opts, local)
			}
			results <- local
		}()
	}

	total := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var readErr error
	for scanner.Scan() {
		if opts.MaxLines > 0 && total.Lines >= opts.MaxLines {
			break
		}
		if ctx.Err() != nil {
			readErr = ctx.Err()
			break
		}
		total.Lines++
		data := make([]byte, len(scanner.Bytes()))
		copy(data, scanner.Bytes())
		jobs <- line{number: total.Lines, data: data}
	}
	close(jobs)
	if readErr == nil {
		readErr = scanner.Err()
	}

	wg.Wait()
	close(results)
	for local := range results {
		total.Add(local)
	}

	if readErr != nil {
		return total, fmt.Errorf("reading input: %w", readErr)
	}

	e.log.Info("ingestion finished",
		"batch", opts.Batch,
		"lines", total.Lines,
		"sentences", total.Sentences,
		"errors", len(total.Errors))
	return total, nil
}

// processLine handles one raw input line end to end.
func (e *Engine) processLine(ctx context.Context, l line, opts Options, res *Result) {
	rec, err := parseRecord(l.data)
	if err != nil {
		res.Errors = append(res.Errors, RecordError{Line: l.number, Message: err.Error()})
		e.log.Warn("skipping record", "line", l.number, "err", err)
		return
	}
	res.Records++

	if rec.Removed() {
		res.Removed++
		return
	}

	body := CleanBody(rec.Body)
	tagged, skipped, err := TagSentences(StripLinks(body))
	if err != nil {
		res.Errors = append(res.Errors, RecordError{Line: l.number, Message: err.Error()})
		e.log.Warn("tagging failed", "line", l.number, "err", err)
		return
	}
	res.Skipped += skipped

	for _, t := range tagged {
		if opts.DryRun {
			res.Sentences++
			continue
		}
		_, err := e.st.InsertSentence(ctx, t.Subjects, &store.Sentence{
			Text:         t.Text,
			Sentiment:    t.Sentiment,
			Subjectivity: t.Subjectivity,
			WordCount:    t.WordCount,
			Link:         rec.SourceLink(),
			Batch:        opts.Batch,
		})
		if err != nil {
			res.Errors = append(res.Errors, RecordError{Line: l.number, Message: err.Error()})
			e.log.Warn("storing sentence failed", "line", l.number, "err", err)
			continue
		}
		res.Sentences++
	}
}
