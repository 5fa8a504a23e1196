package services

import (
	"math"
	"strconv"
	"strings"
)

// RiskClass is the ordinal risk category derived from the normalized score.
type RiskClass int

const (
	RiskLow RiskClass = iota
	RiskModerate
	RiskHigh
	RiskVeryHigh
)

// Category returns the label the app displays for the class.
func (c RiskClass) Category() string {
	switch c {
	case RiskLow:
		return "low"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	case RiskVeryHigh:
		return "very_high"
	}
	return "moderate"
}

// Point weights per answered field. Booleans contribute their weight when
// true; counts contribute weight times the clamped count.
var (
	lifestyleWeights = map[string]int{
		"smoke":            8,
		"drink":            5,
		"diabetes":         10,
		"high_bp":          8,
		"high_cholesterol": 6,
		"history_stroke":   15,
	}
	cognitiveWeights = map[string]int{
		"forget_recent":         10,
		"misplace_objects":      8,
		"confused_dates":        10,
		"trouble_instructions":  12,
		"difficult_concentrate": 8,
		"word_finding":          10,
		"get_lost":              15,
	}
	moodWeights = map[string]int{
		"mood_changes":          8,
		"feel_irritable":        8,
		"others_noticed_change": 12,
	}
	functionalWeights = map[string]int{
		"need_help_daily":   15,
		"forget_meals_meds": 12,
		"struggle_money":    10,
	}
)

// maxRawScore is the sum of every field's maximum contribution:
// age 15 + sleep 10 + exercise 10 + family 16 + diseases 15 + medications 30
// + forgotten 20 + falls 20 + lifestyle 52 + cognitive 73 + mood 28
// + functional 37.
const maxRawScore = 326

// ScoreAnswers maps a flat answer set to a normalized risk score in [0,100]
// and its risk class. Pure function. Missing or unparseable numeric answers
// contribute nothing (sleep hours default to a neutral 7), so scoring itself
// never fails.
func ScoreAnswers(answers map[string]any) (int, RiskClass) {
	raw := 0

	// Age tiers are non-cumulative: only the highest matching tier counts.
	age := numericAnswer(answers, "age", 0)
	switch {
	case age > 65:
		raw += 15
	case age > 50:
		raw += 10
	case age > 35:
		raw += 5
	}

	sleep := numericAnswer(answers, "sleep_hours", 7)
	switch {
	case sleep < 6:
		raw += 10
	case sleep < 7:
		raw += 5
	}

	exercise := clamp(numericAnswer(answers, "exercise_days", 0), 0, 7)
	switch {
	case exercise < 2:
		raw += 10
	case exercise < 4:
		raw += 5
	}

	raw += int(clamp(numericAnswer(answers, "family_dementia", 0), 0, 2)) * 8
	raw += int(clamp(numericAnswer(answers, "long_term_diseases", 0), 0, 3)) * 5
	raw += int(clamp(numericAnswer(answers, "medications_daily", 0), 0, 10)) * 3
	raw += int(clamp(numericAnswer(answers, "forgotten_times", 0), 0, 10)) * 2
	raw += int(clamp(numericAnswer(answers, "falls_past_year", 0), 0, 5)) * 4

	for _, weights := range []map[string]int{lifestyleWeights, cognitiveWeights, moodWeights, functionalWeights} {
		for key, w := range weights {
			if boolAnswer(answers, key) {
				raw += w
			}
		}
	}

	score := int(math.Round(float64(raw) * 100 / maxRawScore))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, ClassForScore(score)
}

// ClassForScore buckets a normalized score into four contiguous bands:
// [0,25) low, [25,50) moderate, [50,75) high, [75,100] very_high.
func ClassForScore(score int) RiskClass {
	switch {
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskModerate
	case score < 75:
		return RiskHigh
	}
	return RiskVeryHigh
}

// numericAnswer coerces a JSON answer value (string from a text input, or a
// number) to float64. Absent or unparseable answers yield fallback.
func numericAnswer(answers map[string]any, key string, fallback float64) float64 {
	v, ok := answers[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return fallback
		}
		return f
	}
	return fallback
}

// boolAnswer coerces a yes/no answer. The app posts real booleans; "yes" and
// "true" strings are accepted for older clients.
func boolAnswer(answers map[string]any, key string) bool {
	switch b := answers[key].(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "yes") || strings.EqualFold(b, "true")
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
