package authorization

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/franchisehub/internal/franchisecontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

const (
	ObjectCompliance = "compliance"
	ObjectObligation = "obligation"
	ObjectOrder      = "order"
	ObjectSales      = "sales"
	ObjectEntryFee   = "entry_fee"
	ObjectAudit      = "audit"
)

const (
	ActionComplianceReport   = "compliance.report"
	ActionComplianceCheckAll = "compliance.check_all"
	ActionComplianceSelf     = "compliance.self"

	ActionObligationDerive  = "obligation.derive"
	ActionObligationConfirm = "obligation.confirm"
	ActionObligationView    = "obligation.view"

	ActionOrderCreate   = "order.create"
	ActionSalesCreate   = "sales.create"
	ActionEntryFeeView  = "entry_fee.view"
	ActionEntryFeeIssue = "entry_fee.issue"
	ActionAuditView     = "audit.view"
)

type Service interface {
	Authorize(ctx context.Context, role, object, action string) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

var Module = fx.Module("authorization.service",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

// NewEnforcer loads policies from casbin_rule and seeds the built-in role
// grants. Seeding is idempotent.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

// Authorize checks a gateway-asserted role against the policy table.
func (s *ServiceImpl) Authorize(ctx context.Context, role, object, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce("role:"+role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		franchiseID, _ := franchisecontext.FranchiseIDFromContext(ctx)
		s.log.Warn("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
			zap.String("franchise_id", franchiseID.String()),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	admin := "role:" + franchisecontext.RoleAdmin
	franchisee := "role:" + franchisecontext.RoleFranchisee

	policies := [][]string{
		// Network administration
		{admin, ObjectCompliance, ActionComplianceReport},
		{admin, ObjectCompliance, ActionComplianceCheckAll},
		{admin, ObjectObligation, ActionObligationDerive},
		{admin, ObjectObligation, ActionObligationConfirm},
		{admin, ObjectObligation, ActionObligationView},
		{admin, ObjectEntryFee, ActionEntryFeeIssue},
		{admin, ObjectAudit, ActionAuditView},

		// Franchise operators
		{franchisee, ObjectCompliance, ActionComplianceSelf},
		{franchisee, ObjectObligation, ActionObligationView},
		{franchisee, ObjectOrder, ActionOrderCreate},
		{franchisee, ObjectSales, ActionSalesCreate},
		{franchisee, ObjectEntryFee, ActionEntryFeeView},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
