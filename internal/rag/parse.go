package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON means the model reply contained nothing decodable against the
// target schema.
var ErrNoJSON = errors.New("rag: no JSON found in model response")

// ExtractJSON decodes a model reply into v. Replies usually wrap the payload
// in a ```json fence; a bare JSON body is accepted too. A reply that decodes
// against neither is an explicit error, never a silently empty value.
func ExtractJSON(response string, v any) error {
	text := response
	if i := strings.Index(response, "```json"); i >= 0 {
		rest := response[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			text = rest[:j]
		} else {
			text = rest
		}
	} else if i := strings.Index(response, "```"); i >= 0 {
		rest := response[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			text = rest[:j]
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return nil
}
