// Package domain contains the export job state machine models.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Format is a supported export output format.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatSpreadsheet Format = "spreadsheet"
	FormatPDF         Format = "pdf"
	FormatFEC         Format = "fec"
)

// ParseFormat normalizes and validates a requested format.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatSpreadsheet, FormatPDF, FormatFEC:
		return f, true
	}
	return "", false
}

// Status is the job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal states are immutable; only deletion remains possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ExportJob is one export request and its outcome. Once the status is
// terminal the row never changes again.
type ExportJob struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	MerchantID snowflake.ID `gorm:"column:merchant_id;not null;index"`

	Format Format `gorm:"type:text;not null"`
	Status Status `gorm:"type:text;not null;index"`

	// Period bounds, [start, end).
	PeriodStart time.Time `gorm:"column:period_start;not null"`
	PeriodEnd   time.Time `gorm:"column:period_end;not null"`

	OutputName string `gorm:"column:output_name;type:text"`
	OutputSize int64  `gorm:"column:output_size;not null;default:0"`
	RowCount   int64  `gorm:"column:row_count;not null;default:0"`

	FailureReason string `gorm:"column:failure_reason;type:text"`

	Options datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`

	CreatedAt   time.Time  `gorm:"not null"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

func (ExportJob) TableName() string { return "export_jobs" }

// IncludeDetails reports the include_details option, one row per order line
// instead of one row per invoice.
func (j *ExportJob) IncludeDetails() bool {
	if j.Options == nil {
		return false
	}
	v, ok := j.Options["include_details"].(bool)
	return ok && v
}

// Encoding reports the requested output encoding, empty for the default.
func (j *ExportJob) Encoding() string {
	if j.Options == nil {
		return ""
	}
	v, _ := j.Options["encoding"].(string)
	return v
}

// ExportArtifact holds the produced bytes, written in the same transaction
// that marks the job completed.
type ExportArtifact struct {
	JobID       snowflake.ID `gorm:"column:job_id;primaryKey"`
	ContentType string       `gorm:"column:content_type;type:text;not null"`
	Data        []byte       `gorm:"type:bytea;not null"`
	CreatedAt   time.Time    `gorm:"not null"`
}

func (ExportArtifact) TableName() string { return "export_artifacts" }
