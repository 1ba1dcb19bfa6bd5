package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type StageStatus string

const (
	StagePending    StageStatus = "PENDING"
	StageInProgress StageStatus = "IN_PROGRESS"
	StageCompleted  StageStatus = "COMPLETED"
	StageRejected   StageStatus = "REJECTED"
)

// IsResolved reports whether the stage has received its final outcome.
func (s StageStatus) IsResolved() bool {
	return s == StageCompleted || s == StageRejected
}

// StageState is one step of an approval pipeline. Rows are created 1:1 from
// the stage templates at instantiation time and are never added, removed or
// reordered afterwards.
type StageState struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;"`
	InstanceID uuid.UUID `gorm:"type:uuid;index;not null"`
	Position   int       `gorm:"not null"`

	// Copied from the template so the row is self-describing
	Name              string         `gorm:"type:varchar(100);not null"`
	AssigneeRole      string         `gorm:"type:varchar(100);not null"`
	RequiredDocuments datatypes.JSON `gorm:"type:jsonb"`
	ActionLabel       string         `gorm:"type:varchar(50)"`

	// Resolution state. CompletedBy/CompletedAt are set exactly when the
	// stage leaves IN_PROGRESS.
	Status      StageStatus `gorm:"type:varchar(20);index;default:'PENDING'"`
	CompletedBy *string     `gorm:"type:varchar(100)"`
	CompletedAt *time.Time
	Comment     string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Documents returns the required document kinds as a string slice.
func (s *StageState) Documents() []string {
	var docs []string
	if len(s.RequiredDocuments) > 0 {
		_ = json.Unmarshal(s.RequiredDocuments, &docs)
	}
	return docs
}

func (s *StageState) resolve(status StageStatus, actor, comment string, now time.Time) {
	by := actor
	s.Status = status
	s.CompletedBy = &by
	s.CompletedAt = &now
	s.Comment = comment
}
