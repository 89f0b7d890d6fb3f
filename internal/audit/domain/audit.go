package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeSystem ActorType = "system"
)

const (
	ActionCheckAll          = "compliance.check_all"
	ActionObligationCreated = "obligation.created"
	ActionObligationPaid    = "obligation.paid"
	ActionEntryFeeIssued    = "entry_fee.issued"
	ActionOrderPlaced       = "order.placed"
	ActionOrderRejected     = "order.rejected"
)

// AuditLog is an append-only record of a state change in the franchise
// network. FranchiseID is nil for network-wide actions.
type AuditLog struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	FranchiseID *snowflake.ID     `gorm:"index" json:"franchise_id,omitempty"`
	ActorType   string            `gorm:"type:text;not null" json:"actor_type"`
	ActorID     *string           `gorm:"type:text" json:"actor_id,omitempty"`
	Action      string            `gorm:"type:varchar(64);not null;index" json:"action"`
	TargetType  string            `gorm:"type:text;not null" json:"target_type"`
	TargetID    *string           `gorm:"type:text" json:"target_id,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	FranchiseID *snowflake.ID
	Action      string
	TargetType  string
	BeforeID    snowflake.ID
	Limit       int
}

type Repository interface {
	Insert(ctx context.Context, entry *AuditLog) error
	List(ctx context.Context, filter ListFilter) ([]AuditLog, error)
}

type ListAuditLogRequest struct {
	FranchiseID *snowflake.ID
	Action      string
	TargetType  string
	PageToken   string
	PageSize    int
}

type ListAuditLogResponse struct {
	AuditLogs     []AuditLog `json:"audit_logs"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

type Service interface {
	AuditLog(ctx context.Context, franchiseID *snowflake.ID, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
