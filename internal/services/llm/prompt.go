package llm

import (
	"encoding/json"
	"fmt"
)

const extractionSystemInstruction = `You are an assistant that extracts community event information from Japanese web pages. Reply with JSON only.`

const extractionPromptTemplate = `Analyze the following web page content and decide whether it announces one or more events
(festivals, workshops, seminars, exhibitions, sports meets, community gatherings and similar).

Source URL: %s

Content:
%s

Reply with a single JSON object in exactly this shape:
{
  "has_event": true or false,
  "events": [
    {
      "title": "event title",
      "category": "event category",
      "start_date": "YYYY-MM-DD",
      "start_time": "HH:MM",
      "end_date": "YYYY-MM-DD",
      "end_time": "HH:MM",
      "venue_name": "venue name",
      "address": "full address",
      "prefecture": "prefecture",
      "city": "city, ward, town or village",
      "description": "short description",
      "target_audience": "who the event is for",
      "fee_amount": "fee as a number only",
      "fee_unit": "currency or unit, e.g. yen",
      "registration_method": "how to register",
      "registration_deadline": "YYYY-MM-DD",
      "contact_info": "contact details"
    }
  ],
  "source_url": "%s"
}

Rules:
- Use null for any field that is not stated on the page.
- If the page does not announce an event, reply {"has_event": false, "events": [], "source_url": "%s"}.
- Do not wrap the JSON in prose.`

const normalizationPromptTemplate = `Normalize the following event records extracted from Japanese web pages.

Event records:
%s

For every event:
- Write dates as YYYY-MM-DD and times as HH:MM (24-hour), converting Japanese era years and full-width digits.
- Write fee_amount as plain digits and fee_unit as a short unit such as "yen"; use "0" for free events.
- Split address into prefecture and city when possible.
- Add "source_url" and a "data_quality_score" between 0.0 and 1.0 reflecting how complete and consistent the record is.

Reply with a single JSON object:
{
  "success": true,
  "normalized_events": [ { ...event fields..., "source_url": "...", "data_quality_score": 0.0 } ]
}`

// BuildExtractionPrompt renders the event extraction prompt for one page
func BuildExtractionPrompt(content, sourceURL string) string {
	return fmt.Sprintf(extractionPromptTemplate, sourceURL, content, sourceURL, sourceURL)
}

// BuildNormalizationPrompt renders the normalization prompt for a list of events
func BuildNormalizationPrompt(events interface{}) (string, error) {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode events: %w", err)
	}
	return fmt.Sprintf(normalizationPromptTemplate, string(data)), nil
}
