package services

import "testing"

func TestBuildQuestionnaireResponse(t *testing.T) {
	q := BuildQuestionnaireResponse(map[string]any{
		"name":               "Alice Smith", // lives in its own column, not the envelope
		"age":                "67",
		"sleep_hours":        "6.5",
		"exercise_days":      "9", // clamped to 7
		"family_dementia":    "5", // clamped to 2
		"long_term_diseases": "1",
		"medications_daily":  "3",
		"smoke":              true,
		"word_finding":       "yes",
		"struggle_money":     false,
		"not_a_question":     "dropped",
	})

	s1 := q.Section1
	if s1.Age != 67 || s1.SleepHours != 6.5 || s1.ExerciseDays != 7 || s1.FamilyDementia != 2 {
		t.Fatalf("section 1 coercion wrong: %+v", s1)
	}
	if s1.LongTermDiseases != 1 || s1.MedicationsDaily != 3 || s1.ForgottenTimes != 0 || s1.FallsPastYear != 0 {
		t.Fatalf("section 1 counts wrong: %+v", s1)
	}
	if !q.Section2.Smoke || q.Section2.Drink {
		t.Fatalf("section 2 booleans wrong: %+v", q.Section2)
	}
	if !q.Section3.WordFinding || q.Section3.GetLost {
		t.Fatalf("section 3 booleans wrong: %+v", q.Section3)
	}
	if q.Section5.StruggleMoney {
		t.Fatalf("section 5 booleans wrong: %+v", q.Section5)
	}
}

func TestBuildQuestionnaireResponseDefaults(t *testing.T) {
	q := BuildQuestionnaireResponse(map[string]any{})
	if q.Section1.SleepHours != 7 {
		t.Fatalf("sleep hours default = %v, want 7", q.Section1.SleepHours)
	}
	if q.Section1.Age != 0 || q.Section1.ExerciseDays != 0 {
		t.Fatalf("numeric defaults wrong: %+v", q.Section1)
	}
}
