package feed

import (
	"github.com/tidwall/gjson"

	"ytcarchiver/pkg/logger"
	"ytcarchiver/pkg/youtube"
)

// Walker paginates a community feed and yields each raw post record
// exactly once per run. The seen-id set is scoped to the Walker
// instance, so direct post fetches and feed walks share one dedup
// domain.
type Walker struct {
	client *youtube.Client
	logger logger.Logger
	seen   map[string]bool
}

// NewWalker creates a Walker bound to a client
func NewWalker(client *youtube.Client, log logger.Logger) *Walker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Walker{
		client: client,
		logger: log,
		seen:   make(map[string]bool),
	}
}

// Walk fetches the feed behind the entry URL and returns every visible
// post record in the feed's native order. An unreachable entry page or
// a page missing its embedded payload yields an empty result, not an
// error.
func (w *Walker) Walk(entryURL string) [][]byte {
	html, err := w.client.FetchPage(entryURL)
	if err != nil {
		w.logger.WarnWithFields("feed entry page unavailable", map[string]interface{}{
			"url":   entryURL,
			"error": err.Error(),
		})
		return nil
	}

	data := extractInitData(html)
	if !data.Complete() {
		w.logger.WarnWithFields("feed entry page missing embedded payload", map[string]interface{}{
			"url": entryURL,
		})
		return nil
	}

	var posts [][]byte

	request := data.Request()
	items, err := w.browseFirstPage(data.APIKey, request)
	if err != nil {
		w.logger.WithError(err).Warn("first feed page unavailable")
		return nil
	}

	content, token := splitContinuation(items)
	posts = append(posts, content...)

	for token != "" {
		w.logger.DebugWithFields("fetching continuation page", map[string]interface{}{
			"posts_so_far": len(posts),
		})

		request.BrowseID = ""
		request.Params = ""
		request.Continuation = token

		items, err = w.browseContinuation(data.APIKey, request)
		if err != nil {
			w.logger.WithError(err).Warn("continuation page unavailable, stopping walk")
			break
		}

		content, token = splitContinuation(items)
		posts = append(posts, content...)
	}

	return w.dedupe(posts)
}

// FetchSingle retrieves one post by its direct URL. Returns nil when
// the post is unreachable, malformed, or already seen this run.
func (w *Walker) FetchSingle(postURL string) []byte {
	html, err := w.client.FetchPage(postURL)
	if err != nil {
		w.logger.WarnWithFields("post unavailable", map[string]interface{}{
			"url":   postURL,
			"error": err.Error(),
		})
		return nil
	}

	tab := findCommunityTab(initialData(html))
	if !tab.Exists() {
		w.logger.WarnWithFields("post page missing embedded payload", map[string]interface{}{
			"url": postURL,
		})
		return nil
	}

	item := tab.Get("tabRenderer.content.sectionListRenderer.contents.0.itemSectionRenderer.contents.0")
	if !item.Exists() {
		return nil
	}

	id := recordID(item)
	if id == "" || w.seen[id] {
		return nil
	}
	w.seen[id] = true

	return []byte(item.Raw)
}

// browseFirstPage issues the initial browse call and locates the
// community tab's item list
func (w *Walker) browseFirstPage(apiKey string, request *youtube.BrowseRequest) ([]gjson.Result, error) {
	body, err := w.client.Browse(apiKey, request)
	if err != nil {
		return nil, err
	}

	tab := findCommunityTab(gjson.ParseBytes(body))
	items := tab.Get("tabRenderer.content.sectionListRenderer.contents.0.itemSectionRenderer.contents")
	return items.Array(), nil
}

// browseContinuation issues a continuation browse call; its items come
// back under the append action instead of the tab tree
func (w *Walker) browseContinuation(apiKey string, request *youtube.BrowseRequest) ([]gjson.Result, error) {
	body, err := w.client.Browse(apiKey, request)
	if err != nil {
		return nil, err
	}

	items := gjson.GetBytes(body, "onResponseReceivedEndpoints.0.appendContinuationItemsAction.continuationItems")
	return items.Array(), nil
}

// splitContinuation separates a page's content items from its trailing
// continuation marker. A page without a trailing marker is terminal
// and all its items are content.
func splitContinuation(items []gjson.Result) ([][]byte, string) {
	if len(items) == 0 {
		return nil, ""
	}

	last := items[len(items)-1]
	token := last.Get("continuationItemRenderer.continuationEndpoint.continuationCommand.token").String()

	var end int
	if token != "" {
		end = len(items) - 1
	} else {
		end = len(items)
	}

	content := make([][]byte, 0, end)
	for _, item := range items[:end] {
		content = append(content, []byte(item.Raw))
	}

	return content, token
}

// recordID extracts a raw record's nested post identifier, reaching
// into the share wrapper when present
func recordID(item gjson.Result) string {
	post := item.Get("backstagePostThreadRenderer.post")
	if id := post.Get("backstagePostRenderer.postId").String(); id != "" {
		return id
	}
	return post.Get("sharedPostRenderer.postId").String()
}

// dedupe drops records whose identifier was already yielded this run
func (w *Walker) dedupe(posts [][]byte) [][]byte {
	unique := make([][]byte, 0, len(posts))

	for _, raw := range posts {
		id := recordID(gjson.ParseBytes(raw))
		if w.seen[id] {
			w.logger.DebugWithFields("skipping duplicate record", map[string]interface{}{
				"post_id": id,
			})
			continue
		}
		w.seen[id] = true
		unique = append(unique, raw)
	}

	return unique
}
