// Package worker serves the vector store over a JSON message protocol, one
// message per line.
package worker

import "github.com/adalundhe/semhash/core/vectorstore"

// MessageType identifies a request.
type MessageType string

const (
	TypeInit   MessageType = "init"
	TypeSearch MessageType = "search"
	TypeHybrid MessageType = "hybrid"
	TypeTags   MessageType = "tags"
	TypePing   MessageType = "ping"
)

// ResponseType identifies a reply.
type ResponseType string

const (
	TypeInited       ResponseType = "inited"
	TypeSearchResult ResponseType = "searchResult"
	TypeHybridResult ResponseType = "hybridResult"
	TypeTagsResult   ResponseType = "tagsResult"
	TypePong         ResponseType = "pong"
	TypeError        ResponseType = "error"
)

// Error codes carried in error responses.
const (
	ErrCodeNotInitialized = "not_initialized"
	ErrCodeUnknownType    = "unknown_message_type"
	ErrCodeMalformed      = "malformed_message"
)

// Message is an inbound request. Which fields apply depends on Type.
type Message struct {
	Type      MessageType            `json:"type"`
	Documents []vectorstore.Document `json:"documents,omitempty"`
	Query     string                 `json:"query,omitempty"`
	Top       int                    `json:"top,omitempty"`
	// Alpha is a pointer so an explicit 0 is distinguishable from absent.
	Alpha *float64 `json:"alpha,omitempty"`
	Text  string   `json:"text,omitempty"`
	Max   int      `json:"max,omitempty"`
}

// Response is an outbound reply.
type Response struct {
	Type    ResponseType `json:"type"`
	Count   *int         `json:"count,omitempty"`
	Query   string       `json:"query,omitempty"`
	Results any          `json:"results,omitempty"`
	Tags    any          `json:"tags,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func errorResponse(code string) Response {
	return Response{Type: TypeError, Error: code}
}
