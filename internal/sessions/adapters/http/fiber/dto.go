package fiber

// IngestRequest triggers one ingestion batch.
// @Description Ingestion window, in milliseconds since epoch
type IngestRequest struct {
	Start *int64 `json:"start,omitempty" example:"1338508800000"`
	End   *int64 `json:"end,omitempty" example:"1338595199999"`
}

type IngestResponse struct {
	Status  string `json:"status" example:"completed"`
	RunID   string `json:"run_id"`
	Fetched int    `json:"fetched"`
	Stored  int    `json:"stored"`
	Skipped int    `json:"skipped"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_request"`
	Message string `json:"message,omitempty" example:"invalid time range"`
}
