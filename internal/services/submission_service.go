package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/cognitosense/cognitosense/internal/store"
)

// SubmissionStore abstracts the persistence operations the submission
// workflow needs.
type SubmissionStore interface {
	UpsertQuestionnaire(userID, email, name string, q *store.QuestionnaireResponse, totalScore, riskClass int) error
	UpsertGameResult(userID, gameKey string, result json.RawMessage) error
	UpsertEyeTracking(userID string, result json.RawMessage) error
}

// QuestionnaireSubmission carries one completed questionnaire. TotalScore and
// TargetClass are optional: older app builds compute them client-side and
// post them, newer ones post only the answers.
type QuestionnaireSubmission struct {
	UserID      string
	Email       string
	Name        string
	Answers     map[string]any
	TotalScore  *int
	TargetClass *int
}

// QuestionnaireResult reports what was stored.
type QuestionnaireResult struct {
	TotalScore int
	RiskClass  RiskClass
}

// SubmissionService validates and coerces inbound submissions before handing
// them to the store. All three paths upsert: whichever field-group arrives
// first creates the user's record.
type SubmissionService struct {
	store SubmissionStore
}

func NewSubmissionService(st SubmissionStore) *SubmissionService {
	return &SubmissionService{store: st}
}

func (s *SubmissionService) SaveQuestionnaire(sub QuestionnaireSubmission) (*QuestionnaireResult, error) {
	userID := strings.TrimSpace(sub.UserID)
	if userID == "" {
		return nil, NewInvalidError("userId required")
	}
	if len(sub.Answers) == 0 {
		return nil, NewInvalidError("questionnaireResponse required")
	}

	name := strings.TrimSpace(sub.Name)
	if name == "" {
		if v, ok := sub.Answers["name"].(string); ok {
			name = strings.TrimSpace(v)
		}
	}

	var score int
	var class RiskClass
	if sub.TotalScore != nil && sub.TargetClass != nil {
		score = clampInt(*sub.TotalScore, 0, 100)
		class = RiskClass(clampInt(*sub.TargetClass, int(RiskLow), int(RiskVeryHigh)))
	} else {
		score, class = ScoreAnswers(sub.Answers)
	}

	q := BuildQuestionnaireResponse(sub.Answers)
	if err := s.store.UpsertQuestionnaire(userID, strings.TrimSpace(sub.Email), name, q, score, int(class)); err != nil {
		return nil, err
	}
	return &QuestionnaireResult{TotalScore: score, RiskClass: class}, nil
}

func (s *SubmissionService) SaveGameResult(userID, gameKey string, result json.RawMessage) error {
	userID = strings.TrimSpace(userID)
	gameKey = strings.TrimSpace(gameKey)
	switch {
	case userID == "":
		return NewInvalidError("userId required")
	case gameKey == "":
		return NewInvalidError("gameKey required")
	case len(result) == 0:
		return NewInvalidError("gameResult required")
	case !store.IsGameKey(gameKey):
		return NewInvalidError("unknown gameKey: " + gameKey)
	}
	// The result payload stays opaque; games own their own shape.
	return s.store.UpsertGameResult(userID, gameKey, result)
}

func (s *SubmissionService) SaveEyeTracking(userID string, result json.RawMessage) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return NewInvalidError("userId required")
	}
	if len(result) == 0 {
		return NewInvalidError("eyeTrackingResult required")
	}
	return s.store.UpsertEyeTracking(userID, result)
}

// RecordOf loads one user's merged record.
func RecordOf(st store.Store, userID string) (*store.UserRecord, error) {
	rec, err := st.GetRecord(strings.TrimSpace(userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewNotFoundError("user not found")
	}
	return rec, err
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
