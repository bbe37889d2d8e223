package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string sets as JSONB.
type StringArray []string

// Scan implements sql.Scanner for StringArray.
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value implements driver.Valuer for StringArray.
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Submission is one contestant's entry. Immutable once registered: the
// pipeline only ever reads it.
type Submission struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	ContestID       uint        `gorm:"not null;index;uniqueIndex:idx_contest_author" json:"contest_id"`
	Author          string      `gorm:"size:100;not null;uniqueIndex:idx_contest_author" json:"author"`
	SourceWorkTitle string      `gorm:"size:200;not null" json:"source_work_title"`
	PromptText      string      `gorm:"size:2000;not null" json:"prompt_text"`
	UsedVocabulary  StringArray `gorm:"type:jsonb;not null" json:"used_vocabulary"`
	VideoURL        string      `gorm:"size:500;not null;default:''" json:"video_url,omitempty"`
	SubmittedAt     time.Time   `gorm:"not null;index" json:"submitted_at"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Submission) TableName() string {
	return "submissions"
}
