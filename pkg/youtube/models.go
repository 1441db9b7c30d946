package youtube

// InitData holds the artifacts extracted from a feed entry page's
// embedded script payloads: the API key and request context used for
// subsequent browse calls, and the browse id plus parameter string
// addressing page one of the community feed.
type InitData struct {
	APIKey   string
	BrowseID string
	Params   string
	Context  map[string]interface{}
}

// Complete reports whether enough was extracted to start paginating
func (d *InitData) Complete() bool {
	return d.APIKey != "" && d.BrowseID != "" && len(d.Context) > 0
}

// BrowseRequest is the body of an innertube browse call. The first
// page is addressed by browse id and params; continuation pages carry
// the opaque token from the previous page instead.
type BrowseRequest struct {
	Context      map[string]interface{} `json:"context"`
	BrowseID     string                 `json:"browseId,omitempty"`
	Params       string                 `json:"params,omitempty"`
	Continuation string                 `json:"continuation,omitempty"`
}

// Request builds the first-page browse request for this init data
func (d *InitData) Request() *BrowseRequest {
	return &BrowseRequest{
		Context:  d.Context,
		BrowseID: d.BrowseID,
		Params:   d.Params,
	}
}
