package store

import (
	"context"

	"github.com/sells-group/directory-cli/internal/model"
)

// ProviderFilter specifies criteria for listing provider records.
type ProviderFilter struct {
	Status  model.RecordStatus `json:"status,omitempty"`
	Source  model.Source       `json:"source,omitempty"`
	BatchID string             `json:"batch_id,omitempty"`
	Limit   int                `json:"limit,omitempty"`
	Offset  int                `json:"offset,omitempty"`
}

// AuditFilter specifies criteria for listing audit log entries.
type AuditFilter struct {
	Action   model.AuditAction `json:"action,omitempty"`
	BatchID  string            `json:"batch_id,omitempty"`
	RecordID string            `json:"record_id,omitempty"`
	Limit    int               `json:"limit,omitempty"`
}

// Store defines the persistence interface for the directory engine.
type Store interface {
	// Providers
	CreateProvider(ctx context.Context, p *model.Provider) error
	BulkCreateProviders(ctx context.Context, ps []*model.Provider) (int64, error)
	GetProvider(ctx context.Context, id string) (*model.Provider, error)
	ListProviders(ctx context.Context, filter ProviderFilter) ([]model.Provider, error)
	// UpdateValidation persists a validation pass: score, per-field
	// results, suggestions and the resulting status. The stored record
	// must allow the transition or the update is rejected.
	UpdateValidation(ctx context.Context, p *model.Provider) error
	// UpdateProviderStatus moves a record through review. Illegal
	// transitions are rejected.
	UpdateProviderStatus(ctx context.Context, id string, status model.RecordStatus, note string) error
	// UpdateProviderFields persists the mutable contact and location
	// fields plus the remaining suggestion set.
	UpdateProviderFields(ctx context.Context, p *model.Provider) error

	// Batches
	CreateBatch(ctx context.Context, b *model.ValidationBatch) error
	GetBatch(ctx context.Context, id string) (*model.ValidationBatch, error)
	CompleteBatch(ctx context.Context, id string, validated, flagged int) error
	IncrementBatchApproved(ctx context.Context, id string) error
	ListBatches(ctx context.Context, limit int) ([]model.ValidationBatch, error)

	// Audit log
	CreateAuditEntry(ctx context.Context, e *model.AuditEntry) error
	ListAuditEntries(ctx context.Context, filter AuditFilter) ([]model.AuditEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
