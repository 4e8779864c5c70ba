package starred

import (
	"encoding/json"
	"net/http"
)

// Record is one starred repository exactly as the API returned it.
type Record = json.RawMessage

// Page is one page of the starred listing.
type Page struct {
	Number  int
	Records []Record
	// LinkHeader is true when the response carried a Link header,
	// HasNext tells whether that header advertised rel="next".
	LinkHeader bool
	HasNext    bool
}

// IsLast reports whether no further page should be requested. A short page
// always ends the listing; a full page only ends it when the provider sent a
// Link header without a next relation.
func (p *Page) IsLast(perPage int) bool {
	if len(p.Records) < perPage {
		return true
	}
	return p.LinkHeader && !p.HasNext
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}
