package flyer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoPayload is returned when the model response contains no JSON value.
var ErrNoPayload = errors.New("no payload found")

// ErrMalformedPayload is returned when a located payload is not valid JSON
// or does not match any of the accepted event shapes.
var ErrMalformedPayload = errors.New("malformed payload")

// ExtractPayload isolates the JSON value embedded in the model response,
// tolerating surrounding prose the model may emit despite instructions to
// return JSON only. The scan is bracket-balanced and string-aware; if the
// payload is truncated it falls back to the span from the first opening
// bracket to the last closing bracket of the same kind.
func ExtractPayload(content string) (string, error) {
	objStart := strings.IndexByte(content, '{')
	arrStart := strings.IndexByte(content, '[')

	start := objStart
	if start == -1 || (arrStart != -1 && arrStart < start) {
		start = arrStart
	}
	if start == -1 {
		return "", ErrNoPayload
	}

	opener := content[start]
	closer := byte('}')
	if opener == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}

	// Unbalanced: keep the first-open-to-last-close span as a best effort.
	end := strings.LastIndexByte(content, closer)
	if end <= start {
		return "", ErrNoPayload
	}
	return content[start : end+1], nil
}

// DecodeCandidates decodes a JSON payload into candidate events. It accepts
// three shapes, in priority order: an object with an "events" array, a bare
// array of events, and a single bare object treated as one event.
func DecodeCandidates(payload string) ([]CandidateEvent, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, ErrNoPayload
	}

	if trimmed[0] == '[' {
		var candidates []CandidateEvent
		if err := json.Unmarshal([]byte(trimmed), &candidates); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return candidates, nil
	}

	var envelope struct {
		Events json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if inner := bytes.TrimSpace(envelope.Events); len(inner) > 0 && inner[0] == '[' {
		var candidates []CandidateEvent
		if err := json.Unmarshal(inner, &candidates); err != nil {
			return nil, fmt.Errorf("%w: events array: %v", ErrMalformedPayload, err)
		}
		return candidates, nil
	}

	// Single bare object: treat as a singleton event list.
	var single CandidateEvent
	if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return []CandidateEvent{single}, nil
}

// ExtractCandidates runs payload isolation and decoding in one step.
func ExtractCandidates(content string) ([]CandidateEvent, error) {
	payload, err := ExtractPayload(content)
	if err != nil {
		return nil, err
	}
	return DecodeCandidates(payload)
}
