package downloader

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]bool
}

func (f *fakeDownloader) DownloadImage(url string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.failOn[url] {
		return nil, fmt.Errorf("upstream refused %s", url)
	}
	return []byte("img:" + url), nil
}

type fakeStorage struct {
	mu      sync.Mutex
	written map[string][]byte
	failOn  map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{written: make(map[string][]byte)}
}

func (f *fakeStorage) WriteImage(dir, filename string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failOn[filename] {
		return fmt.Errorf("disk full")
	}
	f.written[dir+"/"+filename] = data
	return nil
}

func collectResults(t *testing.T, pool *WorkerPool, n int) map[string]Result {
	t.Helper()

	results := make(map[string]Result, n)
	for i := 0; i < n; i++ {
		result := <-pool.Results()
		results[result.Job.URL] = result
	}
	return results
}

func TestPoolDownloadsAndStores(t *testing.T) {
	client := &fakeDownloader{}
	store := newFakeStorage()

	pool := NewWorkerPool(2, client, store, nil, nil)
	pool.Start()

	for i := 0; i < 4; i++ {
		require.NoError(t, pool.Submit(Job{
			URL:      fmt.Sprintf("https://img.example/%d", i),
			Dir:      "/out/[0001] UgX",
			Filename: fmt.Sprintf("%d.png", i),
		}))
	}

	results := collectResults(t, pool, 4)
	pool.Stop()

	require.Len(t, results, 4)
	for url, result := range results {
		assert.True(t, result.Success, url)
		assert.NoError(t, result.Error)
		assert.Equal(t, len("img:")+len(url), result.Size)
	}
	assert.Len(t, store.written, 4)
	assert.Equal(t, []byte("img:https://img.example/2"), store.written["/out/[0001] UgX/2.png"])
}

func TestPoolReportsDownloadFailure(t *testing.T) {
	client := &fakeDownloader{failOn: map[string]bool{"https://img.example/bad": true}}
	store := newFakeStorage()

	pool := NewWorkerPool(1, client, store, nil, nil)
	pool.Start()

	require.NoError(t, pool.Submit(Job{URL: "https://img.example/bad", Filename: "bad.png"}))
	require.NoError(t, pool.Submit(Job{URL: "https://img.example/good", Filename: "good.png"}))

	results := collectResults(t, pool, 2)
	pool.Stop()

	bad := results["https://img.example/bad"]
	assert.False(t, bad.Success)
	assert.ErrorContains(t, bad.Error, "download failed")

	good := results["https://img.example/good"]
	assert.True(t, good.Success)
	assert.Len(t, store.written, 1)
}

func TestPoolReportsStorageFailure(t *testing.T) {
	client := &fakeDownloader{}
	store := newFakeStorage()
	store.failOn = map[string]bool{"full.png": true}

	pool := NewWorkerPool(1, client, store, nil, nil)
	pool.Start()

	require.NoError(t, pool.Submit(Job{URL: "https://img.example/a", Filename: "full.png"}))

	results := collectResults(t, pool, 1)
	pool.Stop()

	result := results["https://img.example/a"]
	assert.False(t, result.Success)
	assert.ErrorContains(t, result.Error, "save failed")
}

func TestPoolStopDrainsQueuedJobs(t *testing.T) {
	client := &fakeDownloader{}
	store := newFakeStorage()

	pool := NewWorkerPool(3, client, store, nil, nil)
	pool.Start()

	const jobs = 6
	done := make(chan map[string]Result)
	go func() { done <- collectResults(t, pool, jobs) }()

	for i := 0; i < jobs; i++ {
		require.NoError(t, pool.Submit(Job{
			URL:      fmt.Sprintf("https://img.example/%d", i),
			Filename: fmt.Sprintf("%d.png", i),
		}))
	}

	results := <-done
	pool.Stop()

	assert.Len(t, results, jobs)
	assert.Len(t, store.written, jobs)
}

func TestPoolMinimumOneWorker(t *testing.T) {
	pool := NewWorkerPool(0, &fakeDownloader{}, newFakeStorage(), nil, nil)
	assert.Equal(t, 1, pool.numWorkers)
}
