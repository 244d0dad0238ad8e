// Package report приводит ответ сервиса анализа к каноническому виду.
//
// Сервис анализа иногда кладёт JSON-объект целиком в поле summary.
// Normalize восстанавливает такой объект, Canonicalize проецирует
// результат на entity.CanonicalReport. Остальная система видит только
// канонический отчёт.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/shopspring/decimal"

	"damage-portal/internal/domain/entity"
)

// Normalize возвращает разобранный из summary объект или исходный отчёт без изменений.
func Normalize(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	if items, ok := raw["items"]; ok && items != nil {
		return raw
	}
	summary, ok := raw["summary"].(string)
	if !ok {
		return raw
	}
	trimmed := strings.TrimSpace(summary)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return raw
	}
	parsed, err := decodeObject([]byte(trimmed))
	if err != nil {
		log.WithError(err).Debug("summary looks like JSON but does not parse, keeping raw report")
		return raw
	}
	return parsed
}

// Parse разбирает тело ответа сервиса анализа.
func Parse(data []byte) (*entity.CanonicalReport, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return Canonicalize(Normalize(raw)), nil
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("report is not an object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after report object")
	}
	return out, nil
}

// Canonicalize переносит поля нормализованного отчёта в entity.CanonicalReport.
// Неизвестные поля и элементы неверного типа пропускаются.
func Canonicalize(raw map[string]any) *entity.CanonicalReport {
	r := &entity.CanonicalReport{}
	if raw == nil {
		return r
	}
	r.OverallSeverity = text(raw["overall_severity"])
	r.Summary = text(raw["summary"])
	r.RecommendedActions = text(raw["recommended_actions"])
	r.Raw = text(raw["raw"])

	items, _ := raw["items"].([]any)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		r.Items = append(r.Items, entity.Finding{
			Part:                   text(m["part"]),
			Area:                   text(m["area"]),
			DamageType:             text(m["damage_type"]),
			Severity:               text(m["severity"]),
			Evidence:               text(m["evidence"]),
			Description:            text(m["description"]),
			RepairRecommendation:   text(m["repair_recommendation"]),
			EstimatedRepairCostUSD: estimate(m["estimated_repair_cost_usd"]),
		})
	}
	return r
}

// text принимает строку, число или bool; остальное считается пустым.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s := text(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

func estimate(v any) entity.Estimate {
	switch t := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return entity.NewAmount(d)
		}
		return entity.Estimate{Text: t.String()}
	case float64:
		return entity.NewAmount(decimal.NewFromFloat(t))
	case string:
		return entity.ParseEstimate(t)
	}
	return entity.Estimate{}
}
