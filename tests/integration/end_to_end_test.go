package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytcarchiver/internal/downloader"
	"ytcarchiver/pkg/archive"
	"ytcarchiver/pkg/exporter"
	"ytcarchiver/pkg/feed"
	"ytcarchiver/pkg/session"
	"ytcarchiver/pkg/storage"
	"ytcarchiver/pkg/ui"
	"ytcarchiver/pkg/youtube"
)

func TestMain(m *testing.M) {
	ui.SetQuietMode(true)
	os.Exit(m.Run())
}

// pipeline wires the full export path against a mock upstream the way
// the archiver does, with the client pointed at the test server.
type pipeline struct {
	walker *feed.Walker
	ledger *archive.Ledger
	store  *storage.Manager
	pool   *downloader.WorkerPool
}

func newPipeline(t *testing.T, baseURL, outputDir string) *pipeline {
	t.Helper()

	client := youtube.NewClient(session.New(nil), 10*time.Second, nil,
		youtube.WithBaseURL(baseURL))

	ledger, err := archive.Load(filepath.Join(outputDir, "archive.json"), nil)
	if err != nil {
		t.Fatalf("failed to load archive: %v", err)
	}

	store, err := storage.NewManager(outputDir, nil)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	return &pipeline{
		walker: feed.NewWalker(client, nil),
		ledger: ledger,
		store:  store,
		pool:   downloader.NewWorkerPool(2, client, store, nil, nil),
	}
}

// run walks the feed and exports oldest first
func (p *pipeline) run(entryURL string) exporter.Stats {
	posts := p.walker.Walk(entryURL)
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}

	p.pool.Start()
	defer p.pool.Stop()

	return exporter.New(p.ledger, p.store, p.pool, nil).Export(posts)
}

func TestEndToEndExport(t *testing.T) {
	server := NewMockServer()
	defer server.Close()

	// newest first, split over two pages
	server.SetPage("", "page2tok",
		textPost("UgNewest", "Test Channel", "latest news", "12"),
		imagePost("UgMiddle", "Test Channel", "photo drop", server.URL()+"/photoA"),
	)
	server.SetPage("page2tok", "",
		textPost("UgOldest", "Test Channel", "first ever post", "3"),
	)

	outputDir := filepath.Join(t.TempDir(), "posts")
	entryURL := server.URL() + "/@testchannel/community"

	stats := newPipeline(t, server.URL(), outputDir).run(entryURL)

	if stats.Exported != 3 || stats.Skipped != 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if server.BrowseCalls() != 2 {
		t.Errorf("expected 2 browse calls, got %d", server.BrowseCalls())
	}

	// oldest post gets the first sequence number
	for _, dir := range []string{
		"[0001] UgOldest",
		"[0002] UgMiddle",
		"[0003] UgNewest",
	} {
		if _, err := os.Stat(filepath.Join(outputDir, dir, "post.txt")); err != nil {
			t.Errorf("missing post.txt in %s: %v", dir, err)
		}
		if _, err := os.Stat(filepath.Join(outputDir, dir, "post.json")); err != nil {
			t.Errorf("missing post.json in %s: %v", dir, err)
		}
	}

	content, err := os.ReadFile(filepath.Join(outputDir, "[0001] UgOldest", "post.txt"))
	if err != nil {
		t.Fatalf("failed to read post.txt: %v", err)
	}
	expected := "Test Channel - 1 day ago\n\nfirst ever post\n\n\n\n3 Likes\n"
	if string(content) != expected {
		t.Errorf("post.txt mismatch:\ngot:  %q\nwant: %q", content, expected)
	}

	// size variants collapse to one full-size download
	imagePath := filepath.Join(outputDir, "[0002] UgMiddle", "photoA=s0.png")
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatalf("failed to read downloaded image: %v", err)
	}
	if string(imageData) != "png-bytes:/photoA=s0" {
		t.Errorf("unexpected image content: %q", imageData)
	}
	if server.ImageCalls("/photoA=s0") != 1 {
		t.Errorf("expected 1 image download, got %d", server.ImageCalls("/photoA=s0"))
	}

	ledgerData, err := os.ReadFile(filepath.Join(outputDir, "archive.json"))
	if err != nil {
		t.Fatalf("failed to read archive file: %v", err)
	}
	var entries map[string]string
	if err := json.Unmarshal(ledgerData, &entries); err != nil {
		t.Fatalf("archive file is not valid JSON: %v", err)
	}
	want := map[string]string{"0001": "UgOldest", "0002": "UgMiddle", "0003": "UgNewest"}
	for key, id := range want {
		if entries[key] != id {
			t.Errorf("archive entry %s = %q, want %q", key, entries[key], id)
		}
	}
}

func TestEndToEndRerunIsIdempotent(t *testing.T) {
	server := NewMockServer()
	defer server.Close()

	server.SetPage("", "",
		textPost("UgB", "Test Channel", "second", "2"),
		textPost("UgA", "Test Channel", "first", "1"),
	)

	outputDir := filepath.Join(t.TempDir(), "posts")
	entryURL := server.URL() + "/@testchannel/community"

	stats := newPipeline(t, server.URL(), outputDir).run(entryURL)
	if stats.Exported != 2 {
		t.Fatalf("first run: %+v", stats)
	}

	// fresh pipeline, same output dir: everything already archived
	stats = newPipeline(t, server.URL(), outputDir).run(entryURL)
	if stats.Exported != 0 || stats.Skipped != 2 {
		t.Fatalf("second run: %+v", stats)
	}

	dirs, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("failed to list output dir: %v", err)
	}
	count := 0
	for _, dir := range dirs {
		if dir.IsDir() {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 post directories, got %d", count)
	}
}

func TestEndToEndNewPostsAppend(t *testing.T) {
	server := NewMockServer()
	defer server.Close()

	server.SetPage("", "",
		textPost("UgA", "Test Channel", "first", "1"),
	)

	outputDir := filepath.Join(t.TempDir(), "posts")
	entryURL := server.URL() + "/@testchannel/community"

	if stats := newPipeline(t, server.URL(), outputDir).run(entryURL); stats.Exported != 1 {
		t.Fatalf("first run: %+v", stats)
	}

	// a new post appears at the top of the feed
	server.SetPage("", "",
		textPost("UgB", "Test Channel", "second", "2"),
		textPost("UgA", "Test Channel", "first", "1"),
	)

	stats := newPipeline(t, server.URL(), outputDir).run(entryURL)
	if stats.Exported != 1 || stats.Skipped != 1 {
		t.Fatalf("second run: %+v", stats)
	}

	if _, err := os.Stat(filepath.Join(outputDir, "[0002] UgB", "post.txt")); err != nil {
		t.Errorf("new post did not get the next sequence number: %v", err)
	}
}
