// Package feed walks a channel's community feed to exhaustion via the
// browse API's continuation mechanism.
package feed

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"ytcarchiver/pkg/youtube"
)

var (
	initialDataPattern = regexp.MustCompile(`(?s)var ytInitialData = (\{.*?\});</script>`)
	ytcfgPattern       = regexp.MustCompile(`(?s)ytcfg\.set\((\{.*?\})\);`)
)

// extractScriptPayload scans the page's script elements for the first
// one matching the pattern and returns the captured JSON text
func extractScriptPayload(html []byte, pattern *regexp.Regexp) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}

	var payload string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// the closing tag is stripped by the parser, restore it so the
		// pattern anchors where the payload ends
		text := s.Text() + "</script>"
		if match := pattern.FindStringSubmatch(text); match != nil {
			payload = match[1]
			return false
		}
		return true
	})

	if payload == "" {
		// fall back to the raw page in case the payload sits outside a
		// well-formed script element
		if match := pattern.FindSubmatch(html); match != nil {
			payload = string(match[1])
		}
	}

	return payload
}

// initialData extracts the embedded ytInitialData document
func initialData(html []byte) gjson.Result {
	payload := extractScriptPayload(html, initialDataPattern)
	if payload == "" {
		return gjson.Result{}
	}
	return gjson.Parse(payload)
}

// findCommunityTab returns the community tab from a browse result
// document, identified by its web endpoint URL suffix
func findCommunityTab(doc gjson.Result) gjson.Result {
	var found gjson.Result

	doc.Get("contents.twoColumnBrowseResultsRenderer.tabs").ForEach(
		func(_, tab gjson.Result) bool {
			url := tab.Get("tabRenderer.endpoint.commandMetadata.webCommandMetadata.url").String()
			if strings.HasSuffix(url, youtube.CommunityTabSuffix) {
				found = tab
				return false
			}
			return true
		})

	return found
}

// extractInitData pulls the API key, request context and first-page
// feed address out of an entry page. Missing pieces leave their fields
// zero; the caller checks Complete.
func extractInitData(html []byte) *youtube.InitData {
	data := &youtube.InitData{}

	if tab := findCommunityTab(initialData(html)); tab.Exists() {
		endpoint := tab.Get("tabRenderer.endpoint.browseEndpoint")
		data.BrowseID = endpoint.Get("browseId").String()
		data.Params = endpoint.Get("params").String()
	}

	cfgPayload := extractScriptPayload(html, ytcfgPattern)
	if cfgPayload == "" {
		return data
	}

	var cfg struct {
		APIKey  string                 `json:"INNERTUBE_API_KEY"`
		Context map[string]interface{} `json:"INNERTUBE_CONTEXT"`
	}
	if err := json.Unmarshal([]byte(cfgPayload), &cfg); err != nil {
		return data
	}

	data.APIKey = cfg.APIKey
	data.Context = cfg.Context

	// force a stable locale so published times and badges come back in
	// the form the normalizer expects
	if client, ok := data.Context["client"].(map[string]interface{}); ok {
		client["hl"] = "en"
		client["gl"] = "US"
	}

	return data
}
