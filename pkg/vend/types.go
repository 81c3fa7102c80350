package vend

import "encoding/json"

// ListResponse is the paginated envelope returned by the remote list
// endpoints: a page of records plus the highest version on the page.
type ListResponse struct {
	Data    []json.RawMessage `json:"data"`
	Version VersionWindow     `json:"version"`
}

type VersionWindow struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Page is handed to the FetchPaginated callback once per page.
type Page struct {
	Records []json.RawMessage
	// MaxVersion is the highest record version on this page; the caller
	// persists it as the cursor after the page's writes commit.
	MaxVersion int64
	Number     int
}

// ObjectResponse wraps single-record endpoints ({"data": {...}}).
type ObjectResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details"`
}
