package youtube

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for YouTube
	BaseURL = "https://www.youtube.com"

	// BrowseEndpoint is the innertube endpoint serving feed pages
	BrowseEndpoint = "/youtubei/v1/browse"

	// CommunityTabSuffix marks the community tab's web endpoint URL
	CommunityTabSuffix = "/community"
)

// BrowseURL constructs the browse endpoint URL for the given API key
func BrowseURL(base, apiKey string) string {
	if base == "" {
		base = BaseURL
	}

	params := url.Values{}
	params.Set("key", apiKey)
	params.Set("prettyPrint", "false")

	return fmt.Sprintf("%s%s?%s", base, BrowseEndpoint, params.Encode())
}

// PostURL resolves a post id or full URL to a direct post URL
func PostURL(base, idOrURL string) string {
	if strings.HasPrefix(idOrURL, "https://") {
		return idOrURL
	}
	if base == "" {
		base = BaseURL
	}
	return fmt.Sprintf("%s/post/%s", base, idOrURL)
}
