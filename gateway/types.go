package gateway

import "encoding/json"

// Item is a remote memory item as returned by the gateway. Unknown fields in
// responses are ignored.
type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Kind     string `json:"kind,omitempty"`
	Nature   string `json:"nature,omitempty"`
	Status   string `json:"status,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Category string `json:"category,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

type CreateInput struct {
	Title    string `json:"title"`
	Kind     string `json:"kind,omitempty"`
	Priority int    `json:"priority,omitempty"`
	Nature   string `json:"nature,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Filter narrows a query by item status, item nature, or free text. Empty
// fields are not sent.
type Filter struct {
	Status string `json:"status,omitempty"`
	Nature string `json:"nature,omitempty"`
	Text   string `json:"text,omitempty"`
}

type request struct {
	ID     string          `json:"id"`
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

type response struct {
	ID    string        `json:"id"`
	Error string        `json:"error,omitempty"`
	Data  *responseData `json:"data,omitempty"`
}

type responseData struct {
	Items []Item `json:"items"`
}

type queryParams struct {
	Filter Filter `json:"filter"`
	Limit  int    `json:"limit"`
}

type updateParams struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
