// Package remote implements the external-delegation seam of the dispatch
// engine over WebSocket: a server that executes registered observers on
// behalf of remote peers, and a client whose SendCallback method plugs
// straight into observer.Hooks.
//
// The contract mirrors the local engine: given a previously issued canonical
// observer id and the positional arguments a local dispatch would have
// computed, the peer returns the same shaped update map or an error.
package remote

import "encoding/json"

// callbackRequest is one delegated dispatch.
type callbackRequest struct {
	// DispatchID is the caller's ULID for correlating the response.
	DispatchID string `json:"dispatch_id"`

	// ObserverID is the canonical observer id to execute.
	ObserverID string `json:"observer_id"`

	// Args are the positional callback arguments.
	Args []any `json:"args"`
}

// callbackResponse carries the result of a delegated dispatch.
type callbackResponse struct {
	DispatchID string `json:"dispatch_id"`

	// Updates is the normalized result map, nil for fire-and-forget rules.
	Updates map[string]map[string]any `json:"updates,omitempty"`

	// Error is the error message, empty on success. Unknown observer ids
	// use ErrorUnknownObserver so clients can map the sentinel back.
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// Error kinds carried over the wire.
const (
	errorKindUnknownObserver = "unknown_observer"
	errorKindCallback        = "callback"
)

// encodeRequest marshals a request frame.
func encodeRequest(r callbackRequest) ([]byte, error) {
	return json.Marshal(r)
}

// decodeRequest unmarshals a request frame.
func decodeRequest(data []byte) (callbackRequest, error) {
	var r callbackRequest
	err := json.Unmarshal(data, &r)
	return r, err
}

// encodeResponse marshals a response frame.
func encodeResponse(r callbackResponse) ([]byte, error) {
	return json.Marshal(r)
}

// decodeResponse unmarshals a response frame.
func decodeResponse(data []byte) (callbackResponse, error) {
	var r callbackResponse
	err := json.Unmarshal(data, &r)
	return r, err
}
