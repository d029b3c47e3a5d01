package domain

// TotalSeries is the series name used by reports without a segmentation.
const TotalSeries = "Total"

type Kind string

const (
	KindSeries Kind = "series" // series name -> date-ordered points
	KindFunnel Kind = "funnel" // step -> date -> value
	KindTotals Kind = "totals" // segment -> step -> count
)

// Point is one date of a series. A nil Value means there was no data to
// compute it from, e.g. a ratio with a zero denominator.
type Point struct {
	Category string   `json:"category"` // YYYY-MM-DD
	Value    *float64 `json:"value"`
}

type Report struct {
	Family       string `json:"family"`
	Kind         Kind   `json:"kind"`
	Segmentation string `json:"segmentation,omitempty"`

	Series map[string][]Point             `json:"series,omitempty"`
	Funnel map[string]map[string]*float64 `json:"funnel,omitempty"`
	Totals map[string]map[string]int64    `json:"totals,omitempty"`
}

// Value wraps v for a Point or funnel cell.
func Value(v float64) *float64 { return &v }
