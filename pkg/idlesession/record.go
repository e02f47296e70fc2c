package idlesession

import (
	"encoding/json"
	"errors"
	"time"
)

// Record is the persisted state of an active session. Its presence in the
// store is the canonical "session active" signal.
type Record struct {
	// LoginTime is the session start in milliseconds since the Unix epoch.
	LoginTime int64 `json:"loginTime"`
	// LastActivity is the last qualifying user activity, same unit.
	LastActivity int64 `json:"lastActivity"`
	// UserID is opaque to this package.
	UserID string `json:"userId"`
}

func newRecord(userID string, now time.Time) Record {
	ms := now.UnixMilli()
	return Record{LoginTime: ms, LastActivity: ms, UserID: userID}
}

// LoginAt returns LoginTime as a time.Time.
func (r Record) LoginAt() time.Time {
	return time.UnixMilli(r.LoginTime)
}

// LastActivityAt returns LastActivity as a time.Time.
func (r Record) LastActivityAt() time.Time {
	return time.UnixMilli(r.LastActivity)
}

// Idle returns the time elapsed since the last activity. Clock skew that
// would make it negative is clamped to zero.
func (r Record) Idle(now time.Time) time.Duration {
	return max(0, now.Sub(r.LastActivityAt()))
}

// touch advances LastActivity, never moving it before LoginTime.
func (r Record) touch(now time.Time) Record {
	r.LastActivity = max(now.UnixMilli(), r.LoginTime)
	return r
}

func (r Record) validate() error {
	if r.UserID == "" {
		return errors.Join(ErrInvalidRecord, errors.New("empty user id"))
	}
	if r.LastActivity < r.LoginTime {
		return errors.Join(ErrInvalidRecord, errors.New("last activity precedes login time"))
	}
	return nil
}

func encodeRecord(r Record) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRecord(raw string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Record{}, errors.Join(ErrInvalidRecord, err)
	}
	if err := r.validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}
