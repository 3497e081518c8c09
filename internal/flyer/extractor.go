package flyer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"flyercalbackend/internal/llm"
)

const extractionPrompt = `You are extracting calendar events from a photo or scan of a flyer, email, or document that often lists many dates and times.

Return ONLY a single raw JSON object with this exact top-level schema:

{
  "events": [
    {
      "title": "...",
      "start_time": "YYYY-MM-DDTHH:MM:SS",
      "end_time": "YYYY-MM-DDTHH:MM:SS",
      "location": "...",
      "description": "..."
    }
  ]
}

Guidelines:
- Create a SEPARATE event for each distinct line, bullet, or activity.
- If the document shows a month header with many dates, use that month for all of them. If no year is printed, use the current year.
- If an end time is not present, set it to 2 hours after start_time.
- If a date range appears without finer granularity, create one event per day with the same title.
- Use ISO 8601 with seconds (e.g. "2025-09-25T09:00:00").
- If a location is not specified, set it to "".
- If a description is not specified, set it to "".

Do not include any explanation or markdown, only valid JSON.`

// Extractor turns a flyer image into canonical events by delegating the
// reading to a vision model and defending against whatever comes back.
type Extractor struct {
	Client     llm.MessagesClient
	Model      string
	MaxTokens  int
	Normalizer *Normalizer
}

// Extract performs the model call and the full extraction/normalization
// chain. Payload-level failures come back wrapped in ErrNoPayload or
// ErrMalformedPayload so callers can report them as empty results; other
// errors mean the model service itself was unreachable.
func (e *Extractor) Extract(ctx context.Context, image FlyerImage) ([]CanonicalEvent, error) {
	if e.Client == nil || e.Model == "" {
		return nil, errors.New("extractor misconfigured: client and model are required")
	}

	req := llm.MessagesRequest{
		Model:     e.Model,
		MaxTokens: e.MaxTokens,
		Messages: []llm.Message{
			llm.VisionMessage(image.MediaType, image.Base64, extractionPrompt),
		},
	}

	resp, err := e.Client.CreateMessage(ctx, req)
	if err != nil && retryable(ctx, err) {
		log.Printf("extractor: retrying after transient error: %v", err)
		resp, err = e.Client.CreateMessage(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	content := resp.Text()
	if content == "" {
		return nil, fmt.Errorf("%w: model response is empty", ErrNoPayload)
	}

	candidates, err := ExtractCandidates(content)
	if err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	events := e.Normalizer.Normalize(candidates)
	log.Printf("extractor: %d candidate(s), %d event(s) after normalization", len(candidates), len(events))
	return events, nil
}

// retryable allows exactly one retry for transport failures and server-side
// errors, never for cancelled contexts or caller mistakes.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}
