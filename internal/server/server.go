package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/foundr/internal/config"
	investordomain "github.com/smallbiznis/foundr/internal/investor/domain"
	memberdomain "github.com/smallbiznis/foundr/internal/member/domain"
	"github.com/smallbiznis/foundr/internal/observability"
	obsmiddleware "github.com/smallbiznis/foundr/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/foundr/internal/observability/metrics"
	obstracing "github.com/smallbiznis/foundr/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/foundr/internal/payment/domain"
	referencedomain "github.com/smallbiznis/foundr/internal/reference/domain"
	tierdomain "github.com/smallbiznis/foundr/internal/tier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

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
	r.Use(CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
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
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	tierSvc      tierdomain.Service
	referenceSvc referencedomain.Service
	paymentSvc   paymentdomain.Service
	memberSvc    memberdomain.Service
	investorSvc  investordomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	TierSvc      tierdomain.Service
	ReferenceSvc referencedomain.Service
	PaymentSvc   paymentdomain.Service
	MemberSvc    memberdomain.Service
	InvestorSvc  investordomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		tierSvc:      p.TierSvc,
		referenceSvc: p.ReferenceSvc,
		paymentSvc:   p.PaymentSvc,
		memberSvc:    p.MemberSvc,
		investorSvc:  p.InvestorSvc,
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/countries", s.ListCountries)

	// -------- Tiers --------
	api.GET("/tiers", s.ListTiers)
	api.GET("/tiers/:id", s.GetTier)

	// -------- Legacy adapters --------
	api.POST("/create-payment-intent", s.CreatePaymentIntent)
	api.POST("/register-member", s.RegisterMemberStrict)
}

func (s *Server) registerPublicRoutes() {
	s.engine.POST("/create-payment-intent", s.CreatePaymentIntent)
	s.engine.POST("/register-member-new", s.RegisterMember)
	s.engine.POST("/register-member", s.RegisterMemberLegacy)
	s.engine.POST("/submit-investor-interest", s.SubmitInvestorInterest)

	s.engine.POST("/stripe/webhook", s.HandleStripeWebhook)
}

func (s *Server) registerAdminRoutes() {
	s.engine.POST("/seed-countries", s.AdminRequired(), s.SeedCountries)

	admin := s.engine.Group("/admin", s.AdminRequired())
	admin.GET("/members", s.ListMembers)
	admin.GET("/members/:id", s.GetMember)
}
