package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entryPageHTML = `<!DOCTYPE html><html><head>
<script nonce="x">var ytInitialData = {"contents": {"twoColumnBrowseResultsRenderer": {"tabs": [
  {"tabRenderer": {"endpoint": {"commandMetadata": {"webCommandMetadata": {"url": "/@channel/videos"}}}}},
  {"tabRenderer": {"endpoint": {
    "commandMetadata": {"webCommandMetadata": {"url": "/@channel/community"}},
    "browseEndpoint": {"browseId": "UCbrowse", "params": "PARAMS123"}
  }}}
]}}};</script>
<script nonce="y">(function() {window.ytcfg={};}());ytcfg.set({"INNERTUBE_API_KEY": "KEY123", "INNERTUBE_CONTEXT": {"client": {"hl": "de", "gl": "DE", "clientName": "WEB"}}}); ytcfg.set("OTHER", 1);</script>
</head><body></body></html>`

func TestExtractInitData(t *testing.T) {
	data := extractInitData([]byte(entryPageHTML))

	require.True(t, data.Complete())
	assert.Equal(t, "KEY123", data.APIKey)
	assert.Equal(t, "UCbrowse", data.BrowseID)
	assert.Equal(t, "PARAMS123", data.Params)

	client, ok := data.Context["client"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "en", client["hl"], "locale must be forced to en")
	assert.Equal(t, "US", client["gl"])
	assert.Equal(t, "WEB", client["clientName"])
}

func TestExtractInitDataMissingPayload(t *testing.T) {
	data := extractInitData([]byte(`<html><body>nothing here</body></html>`))
	assert.False(t, data.Complete())
}

func TestExtractInitDataNoCommunityTab(t *testing.T) {
	html := `<script>var ytInitialData = {"contents": {"twoColumnBrowseResultsRenderer": {"tabs": [
		{"tabRenderer": {"endpoint": {"commandMetadata": {"webCommandMetadata": {"url": "/@channel/videos"}}}}}
	]}}};</script>
	<script>ytcfg.set({"INNERTUBE_API_KEY": "KEY", "INNERTUBE_CONTEXT": {"client": {}}});</script>`

	data := extractInitData([]byte(html))
	assert.Empty(t, data.BrowseID)
	assert.False(t, data.Complete())
	assert.Equal(t, "KEY", data.APIKey)
}

func TestFindCommunityTabMatchesSuffixOnly(t *testing.T) {
	data := initialData([]byte(entryPageHTML))
	tab := findCommunityTab(data)

	require.True(t, tab.Exists())
	assert.Equal(t, "UCbrowse", tab.Get("tabRenderer.endpoint.browseEndpoint.browseId").String())
}
