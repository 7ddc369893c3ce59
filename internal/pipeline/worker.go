package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dgallion1/roomroster/internal/grid"
	"github.com/dgallion1/roomroster/internal/pathstore"
	"github.com/dgallion1/roomroster/internal/roster"
)

// Store is the subset of the pathstore client the worker publishes through.
type Store interface {
	PutNode(ctx context.Context, key string, req pathstore.NodeRequest) error
	ListChildren(ctx context.Context, key string, limit int) ([]pathstore.ListChildrenResponse, error)
}

// Worker processes a single roster import job.
type Worker struct {
	store Store
	stats *ParseStats
	log   *slog.Logger
	sheet string

	maxConcurrentPublish int
}

// NewWorker returns a worker. A nil store disables dedup and publishing.
func NewWorker(store Store, stats *ParseStats, log *slog.Logger, sheet string, maxPublish int) *Worker {
	if maxPublish < 1 {
		maxPublish = 1
	}
	return &Worker{
		store:                store,
		stats:                stats,
		log:                  log,
		sheet:                sheet,
		maxConcurrentPublish: maxPublish,
	}
}

// Process runs the full import pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.SetFileData(nil)

	// Phase 1: Decode
	job.SetStatus(StatusDecoding, "decoding")
	dec, err := grid.ForFile(job.Filename, grid.Options{Sheet: w.sheet})
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "decoding")
		return
	}
	g, err := dec.Decode(bytes.NewReader(job.FileData()))
	if err != nil {
		log.Error("decode failed", "error", err)
		job.AddError(fmt.Sprintf("decode: %s", err))
		job.SetStatus(StatusFailed, "decoding")
		return
	}

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	layout := roster.DefaultLayout()
	start := time.Now()
	sections := layout.Sections(g)
	rooms := roster.Assemble(sections)
	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(elapsed, len(rooms))
	}
	job.SetRooms(len(sections), rooms)
	log.Info("parsed roster", "sections", len(sections), "rooms", len(rooms), "duration_ms", elapsed.Milliseconds())
	if len(rooms) == 0 {
		log.Warn("no room sections recognized")
	}

	hash, err := roomsHash(rooms)
	if err != nil {
		log.Error("hash failed", "error", err)
		job.AddError(fmt.Sprintf("hash: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.SetContentHash(hash)

	if w.store == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}

	// Phase 2.5: Dedup check
	exists, existingID, err := w.checkDuplicate(ctx, hash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if exists {
		log.Info("duplicate roster, skipping", "existing_import_id", existingID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 3: Publish rooms with bounded concurrency.
	job.SetStatus(StatusPublishing, "publishing")
	published, hadErrors := w.publishRooms(ctx, job, rooms, log)
	log.Info("publish complete", "published", published, "total", len(rooms))

	source := "roomroster:" + job.ID
	metaErr := w.store.PutNode(ctx, pathstore.Key("rosters", job.ID, "meta"), pathstore.NodeRequest{
		Value: map[string]any{
			"filename":        job.Filename,
			"content_hash":    hash,
			"sections":        len(sections),
			"rooms":           len(rooms),
			"rooms_published": published,
			"houses":          rooms.Houses(),
			"created_at":      job.CreatedAt.Format(time.RFC3339),
		},
		Source: source,
	})
	if metaErr != nil {
		log.Error("meta write failed", "error", metaErr)
		job.AddError(fmt.Sprintf("meta: %s", metaErr))
		hadErrors = true
	}

	// The hash index is written last so a failed import is not treated as a duplicate.
	if !hadErrors {
		hashErr := w.store.PutNode(ctx, pathstore.Key("rosters", "by_hash", hash, job.ID), pathstore.NodeRequest{
			Value: map[string]any{
				"filename":   job.Filename,
				"created_at": job.CreatedAt.Format(time.RFC3339),
			},
			Source: source,
		})
		if hashErr != nil {
			log.Error("hash index write failed", "error", hashErr)
		}
	}

	switch {
	case hadErrors && published > 0:
		job.SetStatus(StatusPartial, "done")
	case hadErrors:
		job.SetStatus(StatusFailed, "publishing")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}

type publishResult struct {
	key string
	err error
}

func (w *Worker) publishRooms(ctx context.Context, job *Job, rooms roster.RoomMap, log *slog.Logger) (int, bool) {
	sem := semaphore.NewWeighted(int64(w.maxConcurrentPublish))
	results := make(chan publishResult, len(rooms))
	source := "roomroster:" + job.ID

	launched := 0
	hadErrors := false
	for _, house := range rooms.Houses() {
		for _, rec := range rooms.Rooms(house) {
			key := pathstore.Key("rosters", job.ID, "rooms", rec.HouseName, rec.RoomNumber)
			if err := sem.Acquire(ctx, 1); err != nil {
				job.AddError(fmt.Sprintf("publish %s: %s", key, err))
				hadErrors = true
				break
			}
			launched++
			go func(key string, rec roster.RoomRecord) {
				defer sem.Release(1)
				err := w.store.PutNode(ctx, key, pathstore.NodeRequest{
					Value:  rec,
					Source: source,
				})
				results <- publishResult{key: key, err: err}
			}(key, rec)
		}
		if hadErrors {
			break
		}
	}

	published := 0
	for range launched {
		r := <-results
		if r.err != nil {
			log.Error("publish failed", "key", r.key, "error", r.err)
			job.AddError(fmt.Sprintf("publish %s: %s", r.key, r.err))
			hadErrors = true
			continue
		}
		published++
		job.IncrRoomsPublished()
	}
	return published, hadErrors
}

// checkDuplicate reports whether a roster with this hash was already imported.
func (w *Worker) checkDuplicate(ctx context.Context, hash string) (bool, string, error) {
	children, err := w.store.ListChildren(ctx, pathstore.Key("rosters", "by_hash", hash), 1)
	if err != nil {
		return false, "", err
	}
	if len(children) == 0 {
		return false, "", nil
	}
	key := children[0].Key
	if i := strings.LastIndexAny(key, "./"); i >= 0 {
		key = key[i+1:]
	}
	return true, key, nil
}

// roomsHash hashes the canonical JSON of the room map. Map keys are encoded
// in sorted order, so the hash is independent of the workbook's byte layout.
func roomsHash(rooms roster.RoomMap) (string, error) {
	data, err := json.Marshal(rooms)
	if err != nil {
		return "", err
	}
	return ContentHashHex(data), nil
}
