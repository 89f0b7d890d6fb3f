package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/clock"
	obscontext "github.com/smallbiznis/franchisehub/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, franchiseID *snowflake.ID, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := map[string]any{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	actorType, actorID := resolveActor(ctx)
	entry := auditdomain.AuditLog{
		ID:          s.genID.Generate(),
		FranchiseID: normalizeID(franchiseID),
		ActorType:   actorType,
		ActorID:     actorID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    normalizePointer(targetID),
		Metadata:    datatypes.JSONMap(payload),
		CreatedAt:   s.clock.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, &entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	var before snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		parsed, err := snowflake.ParseString(token)
		if err != nil || parsed == 0 {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		before = parsed
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, err := s.repo.List(ctx, auditdomain.ListFilter{
		FranchiseID: normalizeID(req.FranchiseID),
		Action:      req.Action,
		TargetType:  req.TargetType,
		BeforeID:    before,
		Limit:       pageSize,
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	resp := auditdomain.ListAuditLogResponse{AuditLogs: items}
	if len(items) > pageSize {
		resp.AuditLogs = items[:pageSize]
		resp.NextPageToken = resp.AuditLogs[pageSize-1].ID.String()
	}
	if resp.AuditLogs == nil {
		resp.AuditLogs = []auditdomain.AuditLog{}
	}
	return resp, nil
}

func resolveActor(ctx context.Context) (string, *string) {
	role, id := obscontext.ActorFromContext(ctx)
	if role == "" {
		return string(auditdomain.ActorTypeSystem), nil
	}
	return role, normalizePointer(&id)
}

func normalizeID(id *snowflake.ID) *snowflake.ID {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

func normalizePointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
