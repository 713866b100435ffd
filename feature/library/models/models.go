package models

import "time"

// Record is a logical media entry. Records sharing a Path share one stored
// object, whose references metadata counts them.
type Record struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255" json:"name"`
	Path        string    `gorm:"size:512;index" json:"path"`
	ContentType string    `gorm:"size:127" json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName overrides the table name used by GORM.
func (Record) TableName() string {
	return "media_records"
}

// Audit statuses.
const (
	StatusOK       = "OK"
	StatusMismatch = "MISMATCH"
	StatusMissing  = "MISSING"
	StatusError    = "ERROR"
)

// AuditEntry compares the records of one path with the stored reference count.
type AuditEntry struct {
	Path       string `json:"path"`
	Records    int    `json:"records"`
	References int    `json:"references"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// AuditReport is the result of a full reference audit.
type AuditReport struct {
	TotalPaths    int          `json:"total_paths"`
	Mismatches    int          `json:"mismatches"`
	Entries       []AuditEntry `json:"entries"`
	GeneratedAt   string       `json:"generated_at"`
	ExecutionTime string       `json:"execution_time"`
}
