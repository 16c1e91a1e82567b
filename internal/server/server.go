// Package server exposes the fiscal engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tabresto/fiscal/internal/config"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	"github.com/tabresto/fiscal/internal/observability"
	obsmiddleware "github.com/tabresto/fiscal/internal/observability/logger"
	obstracing "github.com/tabresto/fiscal/internal/observability/tracing"
	recapdomain "github.com/tabresto/fiscal/internal/recap/domain"
	"go.uber.org/fx"
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine      *gin.Engine
	settingsSvc settingsdomain.Service
	recapSvc    recapdomain.Service
	exportSvc   exportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	SettingsSvc settingsdomain.Service
	RecapSvc    recapdomain.Service
	ExportSvc   exportdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		settingsSvc: p.SettingsSvc,
		recapSvc:    p.RecapSvc,
		exportSvc:   p.ExportSvc,
	}

	s.registerAPIRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	merchants := api.Group("/merchants/:merchant_id")
	{
		merchants.GET("/settings", s.GetSettings)
		merchants.POST("/settings", s.CreateSettings)
		merchants.PATCH("/settings", s.UpdateSettings)

		merchants.GET("/recaps/:year/:month", s.GetRecap)
		merchants.POST("/recaps/:year/:month/generate", s.GenerateRecap)
		merchants.POST("/recaps/:year/:month/regenerate", s.RegenerateRecap)

		merchants.POST("/exports", s.CreateExport)
		merchants.GET("/exports", s.ListExports)
	}

	exports := api.Group("/exports/:id")
	{
		exports.GET("", s.GetExport)
		exports.DELETE("", s.DeleteExport)
		exports.GET("/download", s.DownloadExport)
	}
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, s *Server) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
