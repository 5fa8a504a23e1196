package store

import "encoding/json"

// The four mini-games the app ships with. The store treats each game's
// result payload as opaque; only the key set is fixed.
const (
	GameLaundrySorter      = "laundry_sorter"
	GameMemoryDialer       = "memory_dialer"
	GameMoneyManager       = "money_manager"
	GameShoppingListRecall = "shopping_list_recall"
)

var gameKeys = map[string]bool{
	GameLaundrySorter:      true,
	GameMemoryDialer:       true,
	GameMoneyManager:       true,
	GameShoppingListRecall: true,
}

// IsGameKey reports whether key names one of the fixed mini-games.
func IsGameKey(key string) bool { return gameKeys[key] }

// QuestionnaireResponse is the persisted shape of a completed questionnaire:
// the flat answer set grouped back into the five screens it was collected on.
type QuestionnaireResponse struct {
	Section1 SectionBasicRisk  `json:"section_1"`
	Section2 SectionLifestyle  `json:"section_2"`
	Section3 SectionCognitive  `json:"section_3"`
	Section4 SectionMood       `json:"section_4"`
	Section5 SectionFunctional `json:"section_5"`
}

type SectionBasicRisk struct {
	Age              int     `json:"age"`
	SleepHours       float64 `json:"sleep_hours"`
	ExerciseDays     int     `json:"exercise_days"`
	FamilyDementia   int     `json:"family_dementia"`
	LongTermDiseases int     `json:"long_term_diseases"`
	MedicationsDaily int     `json:"medications_daily"`
	ForgottenTimes   int     `json:"forgotten_times"`
	FallsPastYear    int     `json:"falls_past_year"`
}

type SectionLifestyle struct {
	Smoke           bool `json:"smoke"`
	Drink           bool `json:"drink"`
	Diabetes        bool `json:"diabetes"`
	HighBP          bool `json:"high_bp"`
	HighCholesterol bool `json:"high_cholesterol"`
	HistoryStroke   bool `json:"history_stroke"`
}

type SectionCognitive struct {
	ForgetRecent         bool `json:"forget_recent"`
	MisplaceObjects      bool `json:"misplace_objects"`
	ConfusedDates        bool `json:"confused_dates"`
	TroubleInstructions  bool `json:"trouble_instructions"`
	DifficultConcentrate bool `json:"difficult_concentrate"`
	WordFinding          bool `json:"word_finding"`
	GetLost              bool `json:"get_lost"`
}

type SectionMood struct {
	MoodChanges         bool `json:"mood_changes"`
	FeelIrritable       bool `json:"feel_irritable"`
	OthersNoticedChange bool `json:"others_noticed_change"`
}

type SectionFunctional struct {
	NeedHelpDaily   bool `json:"need_help_daily"`
	ForgetMealsMeds bool `json:"forget_meals_meds"`
	StruggleMoney   bool `json:"struggle_money"`
}

// UserRecord is one row of the master file: one user, three independently
// updatable field-groups (questionnaire, games, eye tracking) plus metadata.
// Timestamps are RFC 3339 UTC strings; empty means "never".
type UserRecord struct {
	UserID        string                     `json:"user_id"`
	Email         string                     `json:"email,omitempty"`
	Name          string                     `json:"name,omitempty"`
	Questionnaire *QuestionnaireResponse     `json:"questionnaire_response,omitempty"`
	Games         map[string]json.RawMessage `json:"games_response,omitempty"`
	EyeTracking   json.RawMessage            `json:"eye_tracking_response,omitempty"`
	TotalScore    int                        `json:"q_total_score"`
	RiskClass     int                        `json:"target_risk_class"`
	QCompletedAt  string                     `json:"q_completed_at,omitempty"`
	CreatedAt     string                     `json:"created_at,omitempty"`
	LastUpdated   string                     `json:"last_updated,omitempty"`
}

// User is a registered account. Only the export/record surfaces require a
// login; questionnaire and game submissions stay keyed by the client-supplied
// user id.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	PassHash  []byte `json:"-"`
	CreatedAt string `json:"created_at,omitempty"`
}
