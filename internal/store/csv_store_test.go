package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestCSVStore(t *testing.T) *CSVStore {
	t.Helper()
	s, err := NewCSVStore(filepath.Join(t.TempDir(), "master.csv"))
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	return s
}

func sampleQuestionnaire() *QuestionnaireResponse {
	return &QuestionnaireResponse{
		Section1: SectionBasicRisk{Age: 67, SleepHours: 6.5, ExerciseDays: 2, FamilyDementia: 1},
		Section3: SectionCognitive{ForgetRecent: true, GetLost: true},
	}
}

func TestQuestionnaireUpsertNotAppend(t *testing.T) {
	s := newTestCSVStore(t)

	if err := s.UpsertQuestionnaire("alice", "alice@x.y", "Alice", sampleQuestionnaire(), 58, 2); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.UpsertQuestionnaire("alice", "alice@x.y", "Alice", sampleQuestionnaire(), 61, 2); err != nil {
		t.Fatalf("second save: %v", err)
	}

	recs, err := s.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("rows = %d, want 1 (upsert, not append)", len(recs))
	}
	if recs[0].UserID != "alice" || recs[0].TotalScore != 61 {
		t.Fatalf("row = %+v, want updated score 61", recs[0])
	}
}

func TestQuestionnaireSetsTimestamps(t *testing.T) {
	s := newTestCSVStore(t)
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }

	if err := s.UpsertQuestionnaire("alice", "a@x.y", "Alice", sampleQuestionnaire(), 30, 1); err != nil {
		t.Fatalf("save: %v", err)
	}

	s.now = func() time.Time { return t0.Add(time.Hour) }
	if err := s.UpsertQuestionnaire("alice", "a@x.y", "Alice", sampleQuestionnaire(), 35, 1); err != nil {
		t.Fatalf("resave: %v", err)
	}

	rec, err := s.GetRecord("alice")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.CreatedAt != t0.Format(time.RFC3339) {
		t.Fatalf("created_at = %q, want first-save time", rec.CreatedAt)
	}
	if rec.LastUpdated != t0.Add(time.Hour).Format(time.RFC3339) {
		t.Fatalf("last_updated = %q, want second-save time", rec.LastUpdated)
	}
}

func TestGameMergeLeavesQuestionnaireGroup(t *testing.T) {
	s := newTestCSVStore(t)
	if err := s.UpsertQuestionnaire("alice", "a@x.y", "Alice", sampleQuestionnaire(), 58, 2); err != nil {
		t.Fatalf("questionnaire: %v", err)
	}

	payload := json.RawMessage(`{"total_attempts":10,"correct":8,"accuracy":0.8,"completed":true}`)
	if err := s.UpsertGameResult("alice", GameLaundrySorter, payload); err != nil {
		t.Fatalf("game: %v", err)
	}

	rec, err := s.GetRecord("alice")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.TotalScore != 58 || rec.Questionnaire == nil || !rec.Questionnaire.Section3.GetLost {
		t.Fatalf("questionnaire group disturbed: %+v", rec)
	}
	if string(rec.Games[GameLaundrySorter]) != string(payload) {
		t.Fatalf("games group = %v, want merged payload", rec.Games)
	}

	// A second game lands beside the first.
	if err := s.UpsertGameResult("alice", GameMoneyManager, json.RawMessage(`{"completed":false}`)); err != nil {
		t.Fatalf("second game: %v", err)
	}
	rec, _ = s.GetRecord("alice")
	if len(rec.Games) != 2 {
		t.Fatalf("games = %d, want 2", len(rec.Games))
	}
}

func TestGameFirstContactCreatesRecord(t *testing.T) {
	s := newTestCSVStore(t)
	if err := s.UpsertGameResult("fresh", GameMemoryDialer, json.RawMessage(`{"completed":true}`)); err != nil {
		t.Fatalf("game: %v", err)
	}
	rec, err := s.GetRecord("fresh")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.CreatedAt == "" || rec.Questionnaire != nil {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestEyeTrackingUpsert(t *testing.T) {
	s := newTestCSVStore(t)
	payload := json.RawMessage(`{"fixations":12,"saccade_ms":230}`)
	if err := s.UpsertEyeTracking("alice", payload); err != nil {
		t.Fatalf("eye tracking: %v", err)
	}
	rec, err := s.GetRecord("alice")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if string(rec.EyeTracking) != string(payload) {
		t.Fatalf("eye tracking = %s, want payload", rec.EyeTracking)
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	s, err := NewCSVStore(path)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	if err := s.UpsertQuestionnaire("alice", "a@x.y", "Alice", sampleQuestionnaire(), 58, 2); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := NewCSVStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rec, err := reopened.GetRecord("alice")
	if err != nil {
		t.Fatalf("GetRecord after reopen: %v", err)
	}
	if rec.TotalScore != 58 || rec.Questionnaire.Section1.Age != 67 {
		t.Fatalf("record lost across reopen: %+v", rec)
	}
}

func TestFileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.csv")
	s, err := NewCSVStore(path)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	// JSON with quotes and commas must survive CSV quoting.
	if err := s.UpsertEyeTracking("alice", json.RawMessage(`{"note":"left, then \"right\""}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header + 1 row", len(lines))
	}
	wantHeader := "user_id,email,name,questionnaire_response,games_response,eye_tracking_response,q_total_score,target_risk_class,q_completed_at,created_at,last_updated"
	if lines[0] != wantHeader {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "alice,") {
		t.Fatalf("row = %q", lines[1])
	}

	rec, err := s.GetRecord("alice")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if string(rec.EyeTracking) != `{"note":"left, then \"right\""}` {
		t.Fatalf("payload mangled by quoting: %s", rec.EyeTracking)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	s := newTestCSVStore(t)
	_, err := s.GetRecord("nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUsersRoundTrip(t *testing.T) {
	s := newTestCSVStore(t)

	u, err := s.FindUserByUsername("alice")
	if err != nil || u != nil {
		t.Fatalf("empty lookup = (%v, %v), want (nil, nil)", u, err)
	}

	if err := s.AddUser(&User{ID: "u1", Username: "alice", Email: "a@x.y", PassHash: []byte("$2a$fakehash"), CreatedAt: "2025-03-01T10:00:00Z"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	u, err = s.FindUserByUsername("alice")
	if err != nil {
		t.Fatalf("FindUserByUsername: %v", err)
	}
	if u == nil || u.ID != "u1" || string(u.PassHash) != "$2a$fakehash" {
		t.Fatalf("user = %+v", u)
	}
}
