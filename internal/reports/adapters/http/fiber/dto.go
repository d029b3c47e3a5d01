package fiber

import "kpi-report-service/internal/reports/core/domain"

type PointResponse struct {
	Category string   `json:"category" example:"2012-06-01"`
	Value    *float64 `json:"value" example:"0.25"`
}

type ReportResponse struct {
	Family       string `json:"family" example:"assertions"`
	Kind         string `json:"kind" example:"series"`
	Segmentation string `json:"segmentation,omitempty" example:"Browser"`

	Series map[string][]PointResponse     `json:"series,omitempty"`
	Funnel map[string]map[string]*float64 `json:"funnel,omitempty"`
	Totals map[string]map[string]int64    `json:"totals,omitempty"`
}

type ReportIndexResponse struct {
	Families      []string `json:"families"`
	Segmentations []string `json:"segmentations"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_request"`
	Message string `json:"message,omitempty" example:"unknown segmentation: Planet"`
}

func toReportResponse(r *domain.Report) ReportResponse {
	resp := ReportResponse{
		Family:       r.Family,
		Kind:         string(r.Kind),
		Segmentation: r.Segmentation,
		Funnel:       r.Funnel,
		Totals:       r.Totals,
	}
	if r.Series != nil {
		resp.Series = make(map[string][]PointResponse, len(r.Series))
		for name, points := range r.Series {
			out := make([]PointResponse, 0, len(points))
			for _, p := range points {
				out = append(out, PointResponse{Category: p.Category, Value: p.Value})
			}
			resp.Series[name] = out
		}
	}
	return resp
}
