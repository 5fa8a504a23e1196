package services

import "github.com/cognitosense/cognitosense/internal/store"

// BuildQuestionnaireResponse groups a flat answer set into the five-section
// envelope the store persists. Numeric answers are coerced the same way the
// scorer sees them (including the neutral sleep default); unknown keys are
// dropped. The respondent's name is not part of the envelope; it lives in its
// own record column.
func BuildQuestionnaireResponse(answers map[string]any) *store.QuestionnaireResponse {
	return &store.QuestionnaireResponse{
		Section1: store.SectionBasicRisk{
			Age:              int(numericAnswer(answers, "age", 0)),
			SleepHours:       numericAnswer(answers, "sleep_hours", 7),
			ExerciseDays:     int(clamp(numericAnswer(answers, "exercise_days", 0), 0, 7)),
			FamilyDementia:   int(clamp(numericAnswer(answers, "family_dementia", 0), 0, 2)),
			LongTermDiseases: int(clamp(numericAnswer(answers, "long_term_diseases", 0), 0, 3)),
			MedicationsDaily: int(clamp(numericAnswer(answers, "medications_daily", 0), 0, 10)),
			ForgottenTimes:   int(clamp(numericAnswer(answers, "forgotten_times", 0), 0, 10)),
			FallsPastYear:    int(clamp(numericAnswer(answers, "falls_past_year", 0), 0, 5)),
		},
		Section2: store.SectionLifestyle{
			Smoke:           boolAnswer(answers, "smoke"),
			Drink:           boolAnswer(answers, "drink"),
			Diabetes:        boolAnswer(answers, "diabetes"),
			HighBP:          boolAnswer(answers, "high_bp"),
			HighCholesterol: boolAnswer(answers, "high_cholesterol"),
			HistoryStroke:   boolAnswer(answers, "history_stroke"),
		},
		Section3: store.SectionCognitive{
			ForgetRecent:         boolAnswer(answers, "forget_recent"),
			MisplaceObjects:      boolAnswer(answers, "misplace_objects"),
			ConfusedDates:        boolAnswer(answers, "confused_dates"),
			TroubleInstructions:  boolAnswer(answers, "trouble_instructions"),
			DifficultConcentrate: boolAnswer(answers, "difficult_concentrate"),
			WordFinding:          boolAnswer(answers, "word_finding"),
			GetLost:              boolAnswer(answers, "get_lost"),
		},
		Section4: store.SectionMood{
			MoodChanges:         boolAnswer(answers, "mood_changes"),
			FeelIrritable:       boolAnswer(answers, "feel_irritable"),
			OthersNoticedChange: boolAnswer(answers, "others_noticed_change"),
		},
		Section5: store.SectionFunctional{
			NeedHelpDaily:   boolAnswer(answers, "need_help_daily"),
			ForgetMealsMeds: boolAnswer(answers, "forget_meals_meds"),
			StruggleMoney:   boolAnswer(answers, "struggle_money"),
		},
	}
}
