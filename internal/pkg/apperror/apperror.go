// Package apperror holds the gateway's transport error and the defensive
// extraction of human-readable details from backend error payloads.
package apperror

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GenericDetail is shown when a backend payload carries no usable message.
const GenericDetail = "Request failed"

// NetworkError is any failed call to the attendance backend: transport
// failure, non-2xx status or an undecodable body. Err carries the cause,
// which may be a domain sentinel (e.g. invalid credentials).
type NetworkError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *NetworkError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = GenericDetail
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, detail, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, detail)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Message is the text safe to show to an end user.
func (e *NetworkError) Message() string {
	if e.Detail == "" {
		return GenericDetail
	}
	return e.Detail
}

// DetailFrom extracts a message from an error body. It understands
// {"detail": "..."}, FastAPI's {"detail": [{"msg": "..."}]},
// {"message": "..."} and {"error": "..." | {"message": "..."}}; anything
// else yields GenericDetail.
func DetailFrom(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return GenericDetail
	}

	if detail := stringFrom(payload["detail"]); detail != "" {
		return detail
	}
	if items, ok := payload["detail"].([]interface{}); ok {
		var msgs []string
		for _, item := range items {
			if obj, ok := item.(map[string]interface{}); ok {
				if msg := stringFrom(obj["msg"]); msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	if msg := stringFrom(payload["message"]); msg != "" {
		return msg
	}
	switch e := payload["error"].(type) {
	case string:
		if strings.TrimSpace(e) != "" {
			return e
		}
	case map[string]interface{}:
		if msg := stringFrom(e["message"]); msg != "" {
			return msg
		}
	}

	return GenericDetail
}

func stringFrom(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
