package backend

import (
	"encoding/json"

	"damage-portal/internal/domain/entity"
)

type findingPayload struct {
	Part                   string `json:"part,omitempty"`
	Area                   string `json:"area,omitempty"`
	DamageType             string `json:"damage_type,omitempty"`
	Severity               string `json:"severity,omitempty"`
	Evidence               string `json:"evidence,omitempty"`
	Description            string `json:"description,omitempty"`
	RepairRecommendation   string `json:"repair_recommendation,omitempty"`
	EstimatedRepairCostUSD any    `json:"estimated_repair_cost_usd,omitempty"`
}

// reportPayload отчёт в форме, которую возвращает сервис анализа.
type reportPayload struct {
	OverallSeverity    string           `json:"overall_severity,omitempty"`
	Summary            string           `json:"summary,omitempty"`
	RecommendedActions string           `json:"recommended_actions,omitempty"`
	Raw                string           `json:"raw,omitempty"`
	Items              []findingPayload `json:"items"`
}

func newReportPayload(r *entity.CanonicalReport) reportPayload {
	p := reportPayload{
		OverallSeverity:    r.OverallSeverity,
		Summary:            r.Summary,
		RecommendedActions: r.RecommendedActions,
		Raw:                r.Raw,
		Items:              make([]findingPayload, 0, len(r.Items)),
	}
	for _, f := range r.Items {
		fp := findingPayload{
			Part:                 f.Part,
			Area:                 f.Area,
			DamageType:           f.DamageType,
			Severity:             f.Severity,
			Evidence:             f.Evidence,
			Description:          f.Description,
			RepairRecommendation: f.RepairRecommendation,
		}
		switch {
		case f.EstimatedRepairCostUSD.Amount != nil:
			fp.EstimatedRepairCostUSD = json.Number(f.EstimatedRepairCostUSD.Amount.String())
		case f.EstimatedRepairCostUSD.Text != "":
			fp.EstimatedRepairCostUSD = f.EstimatedRepairCostUSD.Text
		}
		p.Items = append(p.Items, fp)
	}
	return p
}
