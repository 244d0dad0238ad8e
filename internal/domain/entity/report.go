package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UnknownPart подставляется, когда у находки нет ни part, ни area.
const UnknownPart = "unknown"

// Estimate оценка стоимости ремонта: точная сумма или произвольный текст.
type Estimate struct {
	Amount *decimal.Decimal
	Text   string
}

// NewAmount создаёт оценку из числа.
func NewAmount(d decimal.Decimal) Estimate {
	return Estimate{Amount: &d}
}

// ParseEstimate разбирает строковую оценку; числовые строки становятся суммой.
func ParseEstimate(s string) Estimate {
	s = strings.TrimSpace(s)
	if s == "" {
		return Estimate{}
	}
	if d, err := decimal.NewFromString(strings.TrimPrefix(s, "$")); err == nil {
		return NewAmount(d)
	}
	return Estimate{Text: s}
}

// IsZero сообщает, что оценка не задана.
func (e Estimate) IsZero() bool {
	return e.Amount == nil && e.Text == ""
}

func (e Estimate) String() string {
	if e.Amount != nil {
		return e.Amount.String()
	}
	return e.Text
}

// Finding одна строка отчёта о повреждениях.
type Finding struct {
	Part                   string
	Area                   string
	DamageType             string
	Severity               string
	Evidence               string
	Description            string
	RepairRecommendation   string
	EstimatedRepairCostUSD Estimate
}

// Name возвращает part, затем area, затем "unknown".
func (f Finding) Name() string {
	if f.Part != "" {
		return f.Part
	}
	if f.Area != "" {
		return f.Area
	}
	return UnknownPart
}

// CanonicalReport нормализованный отчёт, единственная форма, которую понимает остальная система.
type CanonicalReport struct {
	OverallSeverity    string
	Summary            string
	RecommendedActions string
	Raw                string
	Items              []Finding
}

// SummaryText возвращает summary, а при его отсутствии raw.
func (r *CanonicalReport) SummaryText() string {
	if r.Summary != "" {
		return r.Summary
	}
	return r.Raw
}

// TotalEstimate суммирует числовые оценки; ok=false, если их нет.
func (r *CanonicalReport) TotalEstimate() (total decimal.Decimal, ok bool) {
	for _, item := range r.Items {
		if item.EstimatedRepairCostUSD.Amount == nil {
			continue
		}
		total = total.Add(*item.EstimatedRepairCostUSD.Amount)
		ok = true
	}
	return total, ok
}
