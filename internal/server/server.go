package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/authorization"
	"github.com/smallbiznis/franchisehub/internal/clock"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	"github.com/smallbiznis/franchisehub/internal/config"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	"github.com/smallbiznis/franchisehub/internal/observability"
	obsmiddleware "github.com/smallbiznis/franchisehub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/franchisehub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/franchisehub/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/franchisehub/internal/order/domain"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	clock         clock.Clock
	authzSvc      authorization.Service
	evaluator     compliancedomain.Evaluator
	reporter      compliancedomain.Reporter
	calculator    obligationdomain.Calculator
	entryFeeGate  obligationdomain.EntryFeeGate
	obligationSvc obligationdomain.Service
	orderSvc      orderdomain.Service
	salesSvc      salesdomain.Service
	auditSvc      auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	Clock         clock.Clock
	AuthzSvc      authorization.Service
	Evaluator     compliancedomain.Evaluator
	Reporter      compliancedomain.Reporter
	Calculator    obligationdomain.Calculator
	EntryFeeGate  obligationdomain.EntryFeeGate
	ObligationSvc obligationdomain.Service
	OrderSvc      orderdomain.Service
	SalesSvc      salesdomain.Service
	AuditSvc      auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		clock:         p.Clock,
		authzSvc:      p.AuthzSvc,
		evaluator:     p.Evaluator,
		reporter:      p.Reporter,
		calculator:    p.Calculator,
		entryFeeGate:  p.EntryFeeGate,
		obligationSvc: p.ObligationSvc,
		orderSvc:      p.OrderSvc,
		salesSvc:      p.SalesSvc,
		auditSvc:      p.AuditSvc,
	}

	svc.registerAPIRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/")
	api.Use(s.FranchiseContext())

	compliance := api.Group("/compliance")
	{
		compliance.GET("/overview", s.authorizeAction(authorization.ObjectCompliance, authorization.ActionComplianceReport), s.ComplianceOverview)
		compliance.GET("/report", s.authorizeAction(authorization.ObjectCompliance, authorization.ActionComplianceReport), s.ComplianceReport)
		compliance.POST("/check-all", s.authorizeAction(authorization.ObjectCompliance, authorization.ActionComplianceCheckAll), s.ComplianceCheckAll)
		compliance.GET("/me", s.authorizeAction(authorization.ObjectCompliance, authorization.ActionComplianceSelf), s.ComplianceMe)
		compliance.POST("/obligations/derive", s.authorizeAction(authorization.ObjectObligation, authorization.ActionObligationDerive), s.DeriveObligations)
	}

	payments := api.Group("/payments")
	{
		payments.GET("/entry-fee/status", s.authorizeAction(authorization.ObjectEntryFee, authorization.ActionEntryFeeView), s.EntryFeeStatus)
		payments.POST("/entry-fee", s.authorizeAction(authorization.ObjectEntryFee, authorization.ActionEntryFeeIssue), s.IssueEntryFee)
		payments.GET("/obligations", s.authorizeAction(authorization.ObjectObligation, authorization.ActionObligationView), s.ListObligations)
		payments.POST("/obligations/:id/confirm", s.authorizeAction(authorization.ObjectObligation, authorization.ActionObligationConfirm), s.ConfirmObligation)
	}

	api.GET("/audit/logs", s.authorizeAction(authorization.ObjectAudit, authorization.ActionAuditView), s.ListAuditLogs)

	api.POST("/orders",
		s.authorizeAction(authorization.ObjectOrder, authorization.ActionOrderCreate),
		s.RequireEntryFeePaid(),
		s.PlaceOrder,
	)
	api.POST("/sales",
		s.authorizeAction(authorization.ObjectSales, authorization.ActionSalesCreate),
		s.RequireEntryFeePaid(),
		s.RecordSales,
	)
}
