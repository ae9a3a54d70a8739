// -----------------------------------------------------------------------
// Extraction - structured event data returned by the language model
// -----------------------------------------------------------------------

package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is a lenient string field. It decodes JSON strings, numbers and booleans
// as their text and null as empty, and encodes empty text as null.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		// Nested values are kept verbatim
		*t = Text(trimmed)
		return nil
	}
	*t = Text(trimmed)
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

// Event is one event found in a page
type Event struct {
	Title                Text `json:"title" validate:"required"`
	Category             Text `json:"category"`
	StartDate            Text `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime            Text `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndDate              Text `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	EndTime              Text `json:"end_time" validate:"omitempty,datetime=15:04"`
	VenueName            Text `json:"venue_name"`
	Address              Text `json:"address"`
	Prefecture           Text `json:"prefecture"`
	City                 Text `json:"city"`
	Description          Text `json:"description"`
	TargetAudience       Text `json:"target_audience"`
	FeeAmount            Text `json:"fee_amount"`
	FeeUnit              Text `json:"fee_unit"`
	RegistrationMethod   Text `json:"registration_method"`
	RegistrationDeadline Text `json:"registration_deadline"`
	ContactInfo          Text `json:"contact_info"`
}

// ExtractionResult is the per-page outcome of event extraction.
// A negative result (HasEvent=false) may carry Error and RawResponse when the
// model reply was unusable; it is still a processed item, not a failure.
type ExtractionResult struct {
	HasEvent    bool    `json:"has_event"`
	Events      []Event `json:"events" validate:"dive"`
	SourceURL   string  `json:"source_url"`
	Error       string  `json:"error,omitempty"`
	RawResponse string  `json:"raw_response,omitempty"`
}

// NewNegativeResult builds a has_event=false result for sourceURL
func NewNegativeResult(sourceURL, errMsg, rawResponse string) *ExtractionResult {
	return &ExtractionResult{
		HasEvent:    false,
		Events:      []Event{},
		SourceURL:   sourceURL,
		Error:       errMsg,
		RawResponse: rawResponse,
	}
}

// ExtractionError is written in place of a result when processing an input file failed
type ExtractionError struct {
	HasEvent   bool   `json:"has_event"`
	Error      string `json:"error"`
	SourceFile string `json:"source_file"`
	Timestamp  string `json:"timestamp"`
}

// NormalizedEvent is an event rewritten into canonical form with a quality score
type NormalizedEvent struct {
	Event
	SourceURL        string  `json:"source_url"`
	DataQualityScore float64 `json:"data_quality_score" validate:"gte=0,lte=1"`
}

// NormalizationResult is the outcome of normalizing one extraction result
type NormalizationResult struct {
	Success          bool              `json:"success"`
	NormalizedEvents []NormalizedEvent `json:"normalized_events" validate:"dive"`
	Error            string            `json:"error,omitempty"`
	RawResponse      string            `json:"raw_response,omitempty"`
}
