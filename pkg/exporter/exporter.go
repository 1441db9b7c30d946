// Package exporter writes each new post to disk exactly once, tracked
// by the durable archive ledger.
package exporter

import (
	"strings"

	"ytcarchiver/internal/downloader"
	"ytcarchiver/pkg/archive"
	"ytcarchiver/pkg/logger"
	"ytcarchiver/pkg/post"
	"ytcarchiver/pkg/storage"
	"ytcarchiver/pkg/ui"
)

// ImageFetcher schedules image downloads and reports their results
type ImageFetcher interface {
	Submit(job downloader.Job) error
	Results() <-chan downloader.Result
}

// Exporter drives the per-post pipeline: normalize, ledger check,
// write, persist. Posts are processed one at a time; only image
// downloads within a post run concurrently.
type Exporter struct {
	ledger  *archive.Ledger
	storage *storage.Manager
	images  ImageFetcher
	logger  logger.Logger
}

// New creates an Exporter. The image fetcher may be nil, in which case
// attachment downloads are skipped.
func New(ledger *archive.Ledger, store *storage.Manager, images ImageFetcher, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{
		ledger:  ledger,
		storage: store,
		images:  images,
		logger:  log,
	}
}

// Stats summarizes one export run
type Stats struct {
	Total    int
	Exported int
	Skipped  int
	Failed   int
}

// Export processes the run's full post sequence in order. Individual
// post failures are logged and counted, never fatal to the run.
func (e *Exporter) Export(posts [][]byte) Stats {
	stats := Stats{Total: len(posts)}

	for i, raw := range posts {
		p := post.Normalize(raw)
		ui.PrintProgress(i+1, len(posts), p.EffectiveID())

		exported, err := e.exportOne(p)
		switch {
		case err != nil:
			stats.Failed++
			e.logger.ErrorWithFields("post export failed", map[string]interface{}{
				"post_id": p.EffectiveID(),
				"error":   err.Error(),
			})
		case exported:
			stats.Exported++
		default:
			stats.Skipped++
		}
	}

	return stats
}

// exportOne writes a single post, reporting whether it was newly
// exported or skipped as already archived
func (e *Exporter) exportOne(p *post.NormalizedPost) (bool, error) {
	id := p.EffectiveID()

	if e.ledger.Contains(id) {
		e.logger.InfoWithFields("skipping post, already exported", map[string]interface{}{
			"post_id": id,
		})
		return false, nil
	}

	sequence := e.ledger.NextSequence()

	dir, err := e.storage.CreatePostDir(sequence, p.MembersOnly, id)
	if err != nil {
		return false, err
	}

	images := DedupImages(p.AttachedImages)
	e.fetchImages(dir, images, p.Video.ThumbnailURL)

	if err := e.storage.WriteText(dir, renderPost(p, images)); err != nil {
		return false, err
	}
	if err := e.storage.WriteJSON(dir, p.Raw); err != nil {
		return false, err
	}

	// the ledger commits only after every file write succeeded, so a
	// crash mid-post leaves it unrecorded and re-attempted next run
	e.ledger.Record(sequence, id)
	if err := e.ledger.Persist(); err != nil {
		e.logger.WithError(err).Error("archive write failed, will retry on next export")
	}

	e.logger.InfoWithFields("post exported", map[string]interface{}{
		"post_id":  id,
		"sequence": sequence,
		"images":   len(images),
	})

	return true, nil
}

// fetchImages downloads the post's deduplicated images plus the video
// thumbnail. Failures are already logged by the pool; a missing image
// never fails the post.
func (e *Exporter) fetchImages(dir string, images []string, thumbnailURL string) {
	if e.images == nil {
		return
	}

	jobs := make([]downloader.Job, 0, len(images)+1)
	for _, url := range images {
		jobs = append(jobs, downloader.Job{
			URL:      url,
			Dir:      dir,
			Filename: storage.ImageFilename(url),
		})
	}
	if thumbnailURL != "" {
		jobs = append(jobs, downloader.Job{
			URL:      thumbnailURL,
			Dir:      dir,
			Filename: storage.VideoThumbnailName,
		})
	}
	if len(jobs) == 0 {
		return
	}

	// submission and draining must overlap: the pool's queues hold only
	// a few pending jobs, so submitting everything before reading a
	// single result wedges once a post carries more attachments than
	// the pipeline buffers
	submitted := make(chan int, 1)
	go func() {
		count := 0
		for _, job := range jobs {
			if err := e.images.Submit(job); err != nil {
				e.logger.WithError(err).Warn("failed to queue image download")
				continue
			}
			count++
		}
		submitted <- count
	}()

	// posts are processed sequentially, so every pending result
	// belongs to this post
	received := 0
	want := -1
	for want < 0 || received < want {
		select {
		case <-e.images.Results():
			received++
		case want = <-submitted:
		}
	}
}

// DedupImages collapses size variants of the same image into one
// canonical full-size URL, preserving first-seen order
func DedupImages(urls []string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, url := range urls {
		if url == "" {
			continue
		}

		canonical := strings.SplitN(url, "=s", 2)[0] + "=s0"
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		result = append(result, canonical)
	}

	return result
}
