package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the keyed alternative to the whole-file CSV rewrite,
// intended for deployments with more than a handful of users. Field-group
// semantics are identical to CSVStore.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.ToSlash(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, stmt := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user_records (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			questionnaire_response TEXT,
			games_response TEXT,
			eye_tracking_response TEXT,
			q_total_score INTEGER NOT NULL DEFAULT 0,
			target_risk_class INTEGER NOT NULL DEFAULT 0,
			q_completed_at TEXT,
			created_at TEXT NOT NULL,
			last_updated TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create user_records: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			pass_hash BLOB NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create users: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertQuestionnaire(userID, email, name string, q *QuestionnaireResponse, totalScore, riskClass int) error {
	qJSON, err := encodeJSON(q)
	if err != nil {
		return fmt.Errorf("encode questionnaire: %w", err)
	}
	now := s.now().Format(time.RFC3339)
	_, err = s.db.Exec(`
		INSERT INTO user_records
			(user_id, email, name, questionnaire_response, q_total_score, target_risk_class, q_completed_at, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = CASE WHEN excluded.email != '' THEN excluded.email ELSE user_records.email END,
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE user_records.name END,
			questionnaire_response = excluded.questionnaire_response,
			q_total_score = excluded.q_total_score,
			target_risk_class = excluded.target_risk_class,
			q_completed_at = excluded.q_completed_at,
			last_updated = excluded.last_updated
	`, userID, email, name, qJSON, totalScore, riskClass, now, now, now)
	return err
}

func (s *SQLiteStore) UpsertGameResult(userID, gameKey string, result json.RawMessage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := s.now().Format(time.RFC3339)
	var games sql.NullString
	err = tx.QueryRow("SELECT games_response FROM user_records WHERE user_id = ?", userID).Scan(&games)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		merged, mErr := mergeGames(sql.NullString{}, gameKey, result)
		if mErr != nil {
			return mErr
		}
		if _, err := tx.Exec(
			"INSERT INTO user_records (user_id, games_response, created_at, last_updated) VALUES (?, ?, ?, ?)",
			userID, merged, now, now,
		); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		merged, mErr := mergeGames(games, gameKey, result)
		if mErr != nil {
			return mErr
		}
		if _, err := tx.Exec(
			"UPDATE user_records SET games_response = ?, last_updated = ? WHERE user_id = ?",
			merged, now, userID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func mergeGames(existing sql.NullString, gameKey string, result json.RawMessage) (string, error) {
	games := map[string]json.RawMessage{}
	if existing.Valid && existing.String != "" {
		if err := json.Unmarshal([]byte(existing.String), &games); err != nil {
			return "", fmt.Errorf("decode games: %w", err)
		}
	}
	games[gameKey] = result
	b, err := json.Marshal(games)
	if err != nil {
		return "", fmt.Errorf("encode games: %w", err)
	}
	return string(b), nil
}

func (s *SQLiteStore) UpsertEyeTracking(userID string, result json.RawMessage) error {
	now := s.now().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO user_records (user_id, eye_tracking_response, created_at, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			eye_tracking_response = excluded.eye_tracking_response,
			last_updated = excluded.last_updated
	`, userID, string(result), now, now)
	return err
}

func (s *SQLiteStore) GetRecord(userID string) (*UserRecord, error) {
	row := s.db.QueryRow(selectRecords+" WHERE user_id = ?", userID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (s *SQLiteStore) ListRecords() ([]*UserRecord, error) {
	rows, err := s.db.Query(selectRecords + " ORDER BY created_at, user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []*UserRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

const selectRecords = `
	SELECT user_id, email, name, questionnaire_response, games_response,
		eye_tracking_response, q_total_score, target_risk_class,
		q_completed_at, created_at, last_updated
	FROM user_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*UserRecord, error) {
	rec := &UserRecord{}
	var qJSON, gJSON, eJSON, completedAt sql.NullString
	if err := row.Scan(
		&rec.UserID, &rec.Email, &rec.Name, &qJSON, &gJSON, &eJSON,
		&rec.TotalScore, &rec.RiskClass, &completedAt, &rec.CreatedAt, &rec.LastUpdated,
	); err != nil {
		return nil, err
	}
	rec.QCompletedAt = completedAt.String
	if qJSON.Valid && qJSON.String != "" {
		q := &QuestionnaireResponse{}
		if err := json.Unmarshal([]byte(qJSON.String), q); err != nil {
			return nil, fmt.Errorf("decode questionnaire for %s: %w", rec.UserID, err)
		}
		rec.Questionnaire = q
	}
	if gJSON.Valid && gJSON.String != "" {
		if err := json.Unmarshal([]byte(gJSON.String), &rec.Games); err != nil {
			return nil, fmt.Errorf("decode games for %s: %w", rec.UserID, err)
		}
	}
	if eJSON.Valid && eJSON.String != "" {
		rec.EyeTracking = json.RawMessage(eJSON.String)
	}
	return rec, nil
}

func (s *SQLiteStore) AddUser(u *User) error {
	_, err := s.db.Exec(
		"INSERT INTO users (username, user_id, email, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.Username, u.ID, u.Email, u.PassHash, u.CreatedAt,
	)
	return err
}

func (s *SQLiteStore) FindUserByUsername(username string) (*User, error) {
	u := &User{}
	err := s.db.QueryRow(
		"SELECT username, user_id, email, pass_hash, created_at FROM users WHERE username = ?", username,
	).Scan(&u.Username, &u.ID, &u.Email, &u.PassHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func encodeJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
