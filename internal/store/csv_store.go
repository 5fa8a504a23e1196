package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// recordHeaders is the fixed column order of the master file. Every data row
// has exactly this many fields; structured values are JSON embedded in a
// quoted cell.
var recordHeaders = []string{
	"user_id",
	"email",
	"name",
	"questionnaire_response",
	"games_response",
	"eye_tracking_response",
	"q_total_score",
	"target_risk_class",
	"q_completed_at",
	"created_at",
	"last_updated",
}

var userHeaders = []string{"user_id", "username", "email", "pass_hash", "created_at"}

// CSVStore keeps one row per user in a single delimited file and performs a
// full read-merge-rewrite cycle on every save. A mutex serializes the cycle
// so two in-process writers cannot drop each other's update; the write itself
// is not atomic against a crash.
type CSVStore struct {
	mu        sync.Mutex
	path      string
	usersPath string
	now       func() time.Time
}

// NewCSVStore opens (creating if necessary) the master file at path and a
// sibling users file holding registered accounts.
func NewCSVStore(path string) (*CSVStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &CSVStore{
		path:      path,
		usersPath: filepath.Join(dir, "users.csv"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	if err := ensureHeader(s.path, recordHeaders); err != nil {
		return nil, err
	}
	if err := ensureHeader(s.usersPath, userHeaders); err != nil {
		return nil, err
	}
	return s, nil
}

func ensureHeader(path string, headers []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(headers)
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (s *CSVStore) UpsertQuestionnaire(userID, email, name string, q *QuestionnaireResponse, totalScore, riskClass int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readRecords()
	if err != nil {
		return err
	}
	now := s.now().Format(time.RFC3339)
	rec := findOrCreate(&recs, userID, now)
	if email != "" {
		rec.Email = email
	}
	if name != "" {
		rec.Name = name
	}
	rec.Questionnaire = q
	rec.TotalScore = totalScore
	rec.RiskClass = riskClass
	rec.QCompletedAt = now
	rec.LastUpdated = now
	return s.writeRecords(recs)
}

func (s *CSVStore) UpsertGameResult(userID, gameKey string, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readRecords()
	if err != nil {
		return err
	}
	now := s.now().Format(time.RFC3339)
	rec := findOrCreate(&recs, userID, now)
	if rec.Games == nil {
		rec.Games = map[string]json.RawMessage{}
	}
	rec.Games[gameKey] = result
	rec.LastUpdated = now
	return s.writeRecords(recs)
}

func (s *CSVStore) UpsertEyeTracking(userID string, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readRecords()
	if err != nil {
		return err
	}
	now := s.now().Format(time.RFC3339)
	rec := findOrCreate(&recs, userID, now)
	rec.EyeTracking = result
	rec.LastUpdated = now
	return s.writeRecords(recs)
}

func (s *CSVStore) GetRecord(userID string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readRecords()
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if r.UserID == userID {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *CSVStore) ListRecords() ([]*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRecords()
}

func (s *CSVStore) AddUser(u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.readUsers()
	if err != nil {
		return err
	}
	users = append(users, u)
	return s.writeUsers(users)
}

func (s *CSVStore) FindUserByUsername(username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (s *CSVStore) Close() error { return nil }

func findOrCreate(recs *[]*UserRecord, userID, now string) *UserRecord {
	for _, r := range *recs {
		if r.UserID == userID {
			return r
		}
	}
	rec := &UserRecord{UserID: userID, CreatedAt: now}
	*recs = append(*recs, rec)
	return rec
}

func (s *CSVStore) readRecords() ([]*UserRecord, error) {
	rows, err := readRows(s.path, len(recordHeaders))
	if err != nil {
		return nil, err
	}
	recs := make([]*UserRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.path, i+2, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *CSVStore) writeRecords(recs []*UserRecord) error {
	b, err := MarshalRecordsCSV(recs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *CSVStore) readUsers() ([]*User, error) {
	rows, err := readRows(s.usersPath, len(userHeaders))
	if err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, &User{
			ID:        row[0],
			Username:  row[1],
			Email:     row[2],
			PassHash:  []byte(row[3]),
			CreatedAt: row[4],
		})
	}
	return users, nil
}

func (s *CSVStore) writeUsers(users []*User) error {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(userHeaders)
	for _, u := range users {
		if err := w.Write([]string{u.ID, u.Username, u.Email, string(u.PassHash), u.CreatedAt}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := os.WriteFile(s.usersPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.usersPath, err)
	}
	return nil
}

func readRows(path string, width int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = width
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil // skip header
}

// MarshalRecordsCSV renders records in the master file's layout: the fixed
// header row followed by one row per user. The export endpoint reuses it so
// downloads match the on-disk format byte for byte.
func MarshalRecordsCSV(recs []*UserRecord) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(recordHeaders)
	for _, rec := range recs {
		row, err := encodeRecord(rec)
		if err != nil {
			return nil, err
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func encodeRecord(rec *UserRecord) ([]string, error) {
	qJSON := ""
	if rec.Questionnaire != nil {
		b, err := json.Marshal(rec.Questionnaire)
		if err != nil {
			return nil, fmt.Errorf("encode questionnaire for %s: %w", rec.UserID, err)
		}
		qJSON = string(b)
	}
	gJSON := ""
	if len(rec.Games) > 0 {
		b, err := json.Marshal(rec.Games)
		if err != nil {
			return nil, fmt.Errorf("encode games for %s: %w", rec.UserID, err)
		}
		gJSON = string(b)
	}
	eJSON := ""
	if len(rec.EyeTracking) > 0 {
		eJSON = string(rec.EyeTracking)
	}
	score, class := "", ""
	if rec.QCompletedAt != "" {
		score = strconv.Itoa(rec.TotalScore)
		class = strconv.Itoa(rec.RiskClass)
	}
	return []string{
		rec.UserID,
		rec.Email,
		rec.Name,
		qJSON,
		gJSON,
		eJSON,
		score,
		class,
		rec.QCompletedAt,
		rec.CreatedAt,
		rec.LastUpdated,
	}, nil
}

func decodeRecord(row []string) (*UserRecord, error) {
	rec := &UserRecord{
		UserID:       row[0],
		Email:        row[1],
		Name:         row[2],
		QCompletedAt: row[8],
		CreatedAt:    row[9],
		LastUpdated:  row[10],
	}
	if row[3] != "" {
		q := &QuestionnaireResponse{}
		if err := json.Unmarshal([]byte(row[3]), q); err != nil {
			return nil, fmt.Errorf("decode questionnaire: %w", err)
		}
		rec.Questionnaire = q
	}
	if row[4] != "" {
		if err := json.Unmarshal([]byte(row[4]), &rec.Games); err != nil {
			return nil, fmt.Errorf("decode games: %w", err)
		}
	}
	if row[5] != "" {
		rec.EyeTracking = json.RawMessage(row[5])
	}
	if row[6] != "" {
		n, err := strconv.Atoi(row[6])
		if err != nil {
			return nil, fmt.Errorf("decode total score: %w", err)
		}
		rec.TotalScore = n
	}
	if row[7] != "" {
		n, err := strconv.Atoi(row[7])
		if err != nil {
			return nil, fmt.Errorf("decode risk class: %w", err)
		}
		rec.RiskClass = n
	}
	return rec, nil
}
