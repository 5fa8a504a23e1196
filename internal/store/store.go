package store

import (
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by lookups for a user id with no record.
var ErrNotFound = errors.New("record not found")

// Store persists user records and accounts. Two implementations exist:
// CSVStore, the default single-file store the app shipped with, and
// SQLiteStore for deployments that outgrow whole-file rewrites.
type Store interface {
	// UpsertQuestionnaire creates or updates the record for userID and
	// overwrites only its questionnaire field-group.
	UpsertQuestionnaire(userID, email, name string, q *QuestionnaireResponse, totalScore, riskClass int) error
	// UpsertGameResult merges one game's opaque result payload into the
	// record's games field-group, creating the record if needed.
	UpsertGameResult(userID, gameKey string, result json.RawMessage) error
	// UpsertEyeTracking replaces the record's eye-tracking payload,
	// creating the record if needed.
	UpsertEyeTracking(userID string, result json.RawMessage) error

	GetRecord(userID string) (*UserRecord, error)
	ListRecords() ([]*UserRecord, error)

	AddUser(u *User) error
	// FindUserByUsername returns (nil, nil) when no such account exists.
	FindUserByUsername(username string) (*User, error)

	Close() error
}
