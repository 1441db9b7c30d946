// Package archiver wires the session, feed walker, exporter and
// download pool into one run of the archival pipeline.
package archiver

import (
	"fmt"
	"time"

	"ytcarchiver/internal/downloader"
	"ytcarchiver/pkg/archive"
	"ytcarchiver/pkg/config"
	"ytcarchiver/pkg/exporter"
	"ytcarchiver/pkg/feed"
	"ytcarchiver/pkg/logger"
	"ytcarchiver/pkg/ratelimit"
	"ytcarchiver/pkg/session"
	"ytcarchiver/pkg/storage"
	"ytcarchiver/pkg/youtube"
)

// Archiver runs the full pipeline: walk the feed, normalize, export
// each new post once.
type Archiver struct {
	cfg     *config.Config
	client  *youtube.Client
	walker  *feed.Walker
	ledger  *archive.Ledger
	storage *storage.Manager
	pool    *downloader.WorkerPool
	logger  logger.Logger
}

// New builds an Archiver from configuration. The session is seeded
// from the cookie file when one is configured, with stored credential
// profiles as a fallback for members-only access.
func New(cfg *config.Config) (*Archiver, error) {
	log := logger.GetLogger()

	sess := session.FromCookieFile(cfg.YouTube.CookieFile)

	if !sess.Authenticated() {
		if manager, err := session.NewManager(); err == nil {
			if profile, err := manager.RetrieveDefault(); err == nil {
				sess.ApplyProfile(profile)
				log.InfoWithFields("using stored credentials", map[string]interface{}{
					"profile": profile.Name,
				})
			}
		}
	}

	if sess.Authenticated() {
		log.Info("session is authenticated, members-only posts are visible")
	} else {
		log.Info("anonymous session, members-only posts will be missing")
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)

	client := youtube.NewClient(sess, cfg.Download.RequestTimeout, log,
		youtube.WithUserAgent(cfg.YouTube.UserAgent),
		youtube.WithRateLimiter(limiter),
		youtube.WithRetry(cfg.RateLimit.MaxRetries),
	)

	ledger, err := archive.Load(cfg.ArchivePath(), log)
	if err != nil {
		return nil, fmt.Errorf("cannot load archive: %w", err)
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory, log)
	if err != nil {
		return nil, err
	}

	pool := downloader.NewWorkerPool(cfg.Download.ConcurrentDownloads, client, store, limiter, log)

	return &Archiver{
		cfg:     cfg,
		client:  client,
		walker:  feed.NewWalker(client, log),
		ledger:  ledger,
		storage: store,
		pool:    pool,
		logger:  log,
	}, nil
}

// Run archives the posts behind the given channel URL and/or explicit
// post id list. Individually listed posts are fetched first; the feed
// walk is appended oldest-first so sequence numbers follow publication
// order.
func (a *Archiver) Run(channelURL string, postIDs []string) (exporter.Stats, error) {
	var posts [][]byte

	for _, id := range postIDs {
		url := youtube.PostURL(a.client.BaseURL(), id)

		if raw := a.walker.FetchSingle(url); raw != nil {
			posts = append(posts, raw)
		} else {
			a.logger.WarnWithFields("could not retrieve post", map[string]interface{}{
				"url": url,
			})
		}
	}
	if len(postIDs) > 0 {
		a.logger.InfoWithFields("posts retrieved from id list", map[string]interface{}{
			"requested": len(postIDs),
			"retrieved": len(posts),
		})
	}

	if channelURL != "" {
		a.logger.InfoWithFields("walking community feed", map[string]interface{}{
			"url": channelURL,
		})

		walked := a.walker.Walk(channelURL)
		if len(walked) > 0 {
			a.logger.InfoWithFields("posts retrieved from feed", map[string]interface{}{
				"count": len(walked),
			})
			reverse(walked)
			posts = append(posts, walked...)
		} else {
			a.logger.Info("no posts could be retrieved from the feed")
		}
	}

	if len(posts) == 0 {
		return exporter.Stats{}, nil
	}

	a.pool.Start()
	defer a.pool.Stop()

	exp := exporter.New(a.ledger, a.storage, a.pool, a.logger)
	return exp.Export(posts), nil
}

// reverse flips the feed's native newest-first order so posts export
// oldest-first
func reverse(posts [][]byte) {
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
}
