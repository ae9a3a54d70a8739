package models

// FetchSummary is the result payload of the fetch stage
type FetchSummary struct {
	TotalURLs       int     `json:"total_urls"`
	Successful      int     `json:"successful"`
	Failed          int     `json:"failed"`
	SuccessRate     float64 `json:"success_rate"` // percent, 0 when there were no URLs
	OutputDirectory string  `json:"output_directory"`
}

// FilterSummary is the result payload of the filter stage.
// Negative findings count as processed; only raised errors count as failed.
type FilterSummary struct {
	TotalFiles      int     `json:"total_files"`
	Processed       int     `json:"processed"`
	EventsFound     int     `json:"events_found"`
	Failed          int     `json:"failed"`
	SuccessRate     float64 `json:"success_rate"`
	InputDirectory  string  `json:"input_directory"`
	OutputDirectory string  `json:"output_directory"`
}

// NormalizeSummary is the result payload of the normalize stage
type NormalizeSummary struct {
	TotalFiles      int    `json:"total_files"`
	Normalized      int    `json:"normalized"`
	Skipped         int    `json:"skipped"` // inputs without an event
	Failed          int    `json:"failed"`
	InputDirectory  string `json:"input_directory"`
	OutputDirectory string `json:"output_directory"`
}

// SuccessRate returns part/total as a percentage, 0 when total is 0
func SuccessRate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
