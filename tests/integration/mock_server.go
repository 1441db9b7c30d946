package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockServer simulates the upstream feed endpoints: the community entry
// page, the browse API behind it, and image hosting.
type MockServer struct {
	server *httptest.Server

	mu          sync.Mutex
	browseCalls int
	imageCalls  map[string]int

	// pages maps a continuation token to the items of the page it
	// addresses; the empty token addresses page one
	pages map[string][]string
}

// NewMockServer starts a mock upstream with the given feed pages
func NewMockServer() *MockServer {
	ms := &MockServer{
		imageCalls: make(map[string]int),
		pages:      make(map[string][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/@testchannel/community", ms.handleEntryPage)
	mux.HandleFunc("/youtubei/v1/browse", ms.handleBrowse)
	mux.HandleFunc("/", ms.handleImage)

	ms.server = httptest.NewServer(mux)
	return ms
}

// URL returns the mock server's base URL
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the server down
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetPage installs one feed page. Token "" is the first page; nextToken
// "" marks the page as terminal.
func (ms *MockServer) SetPage(token, nextToken string, items ...string) {
	page := append([]string{}, items...)
	if nextToken != "" {
		page = append(page, continuationItem(nextToken))
	}

	ms.mu.Lock()
	ms.pages[token] = page
	ms.mu.Unlock()
}

// BrowseCalls returns how many browse requests were served
func (ms *MockServer) BrowseCalls() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.browseCalls
}

// ImageCalls returns how many times the given image path was fetched
func (ms *MockServer) ImageCalls(path string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.imageCalls[path]
}

func (ms *MockServer) handleEntryPage(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `<html><head></head><body>
<script>var ytInitialData = {"contents": {"twoColumnBrowseResultsRenderer": {"tabs": [
	{"tabRenderer": {"endpoint": {
		"commandMetadata": {"webCommandMetadata": {"url": "/@testchannel/community"}},
		"browseEndpoint": {"browseId": "UCtest", "params": "COMMUNITYPARAMS"}
	}}}
]}}};</script>
<script>ytcfg.set({"INNERTUBE_API_KEY": "TESTKEY", "INNERTUBE_CONTEXT": {"client": {"clientName": "WEB", "clientVersion": "2.20240101", "hl": "fi", "gl": "FI"}}});</script>
</body></html>`)
}

func (ms *MockServer) handleBrowse(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.browseCalls++
	ms.mu.Unlock()

	if r.URL.Query().Get("key") != "TESTKEY" {
		http.Error(w, "missing api key", http.StatusForbidden)
		return
	}

	var request struct {
		BrowseID     string `json:"browseId"`
		Continuation string `json:"continuation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	ms.mu.Lock()
	items, ok := ms.pages[request.Continuation]
	ms.mu.Unlock()

	if !ok {
		http.Error(w, "unknown page", http.StatusNotFound)
		return
	}

	joined := strings.Join(items, ",")
	if request.Continuation == "" {
		fmt.Fprintf(w, `{"contents": {"twoColumnBrowseResultsRenderer": {"tabs": [
			{"tabRenderer": {
				"endpoint": {"commandMetadata": {"webCommandMetadata": {"url": "/@testchannel/community"}}},
				"content": {"sectionListRenderer": {"contents": [{"itemSectionRenderer": {"contents": [%s]}}]}}
			}}
		]}}}`, joined)
		return
	}

	fmt.Fprintf(w, `{"onResponseReceivedEndpoints": [{"appendContinuationItemsAction": {"continuationItems": [%s]}}]}`, joined)
}

// handleImage serves fake image bytes for any unrecognized path
func (ms *MockServer) handleImage(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	ms.imageCalls[r.URL.Path]++
	ms.mu.Unlock()

	w.Header().Set("Content-Type", "image/png")
	w.Write([]byte("png-bytes:" + r.URL.Path))
}

// textPost builds a raw feed record carrying only text
func textPost(id, author, text, likes string) string {
	return fmt.Sprintf(`{"backstagePostThreadRenderer": {"post": {"backstagePostRenderer": {
		"postId": %q,
		"authorText": {"runs": [{"text": %q}]},
		"publishedTimeText": {"runs": [{"text": "1 day ago"}]},
		"contentText": {"runs": [{"text": %q}]},
		"voteCount": {"simpleText": %q}
	}}}}`, id, author, text, likes)
}

// imagePost builds a raw feed record with one attached image
func imagePost(id, author, text, imageURL string) string {
	return fmt.Sprintf(`{"backstagePostThreadRenderer": {"post": {"backstagePostRenderer": {
		"postId": %q,
		"authorText": {"runs": [{"text": %q}]},
		"publishedTimeText": {"runs": [{"text": "2 days ago"}]},
		"contentText": {"runs": [{"text": %q}]},
		"voteCount": {"simpleText": "5"},
		"backstageAttachment": {"backstageImageRenderer": {"image": {"thumbnails": [
			{"url": "%s=s288"}, {"url": "%s=s640"}
		]}}}
	}}}}`, id, author, text, imageURL, imageURL)
}

func continuationItem(token string) string {
	return fmt.Sprintf(`{"continuationItemRenderer": {"continuationEndpoint": {"continuationCommand": {"token": %q}}}}`, token)
}
