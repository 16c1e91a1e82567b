package domain

import (
	"context"
	"time"

	"github.com/tabresto/fiscal/pkg/db/pagination"
)

type CreateRequest struct {
	MerchantID     string    `json:"-"`
	Format         string    `json:"format"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	IncludeDetails bool      `json:"include_details"`
	// Encoding is honored by the FEC format: "utf-8" (default) or
	// "iso-8859-15".
	Encoding string `json:"encoding,omitempty"`
}

type Response struct {
	ID         string `json:"id"`
	MerchantID string `json:"merchant_id"`
	Format     Format `json:"format"`
	Status     Status `json:"status"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	OutputName    string `json:"output_name,omitempty"`
	OutputSize    int64  `json:"output_size,omitempty"`
	RowCount      int64  `json:"row_count,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`

	IncludeDetails bool `json:"include_details"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ListResponse struct {
	Jobs     []*Response          `json:"jobs"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

// Download is the artifact handed to the HTTP layer.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Service interface {
	// Create validates the request and returns a pending job; processing
	// happens asynchronously in the worker. No job row is created on
	// validation failure.
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, merchantID string, page pagination.Pagination) (*ListResponse, error)
	Delete(ctx context.Context, id string) error
	// Download returns the artifact of a completed job, ErrNotReady while
	// the job is in flight, ErrNotCompleted for a failed one.
	Download(ctx context.Context, id string) (*Download, error)
}
