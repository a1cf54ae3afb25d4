package api

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/jengzang/records-timeline/internal/classifier"
	"github.com/jengzang/records-timeline/internal/config"
	"github.com/jengzang/records-timeline/internal/handler"
	"github.com/jengzang/records-timeline/internal/middleware"
	"github.com/jengzang/records-timeline/internal/repository"
	"github.com/jengzang/records-timeline/internal/service"
)

// Services groups the application services the router exposes
type Services struct {
	Samples  *service.SampleService
	Timeline *service.TimelineService
	Models   *service.ModelService
}

// NewServices wires repositories, the region classifier and services over db
func NewServices(db *sql.DB, cfg *config.Config, logger hclog.Logger) *Services {
	sampleRepo := repository.NewSampleRepository(db)
	segmentRepo := repository.NewSegmentRepository(db)
	modelRepo := repository.NewModelRepository(db)

	c := classifier.NewRegionClassifier(modelRepo, logger,
		classifier.WithMaxFilteredAccuracy(cfg.Classifier.MaxFilteredAccuracy))

	return &Services{
		Samples:  service.NewSampleService(sampleRepo),
		Timeline: service.NewTimelineService(sampleRepo, segmentRepo, c, cfg.Segmenter, logger),
		Models:   service.NewModelService(sampleRepo, modelRepo, c, logger),
	}
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc *Services, logger hclog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Records Timeline API is running",
		})
	})

	samples := handler.NewSampleHandler(svc.Samples)
	timeline := handler.NewTimelineHandler(svc.Timeline)
	models := handler.NewModelHandler(svc.Models)

	auth := middleware.Auth(cfg.JWTSecret)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)))
	{
		api.GET("/samples", samples.GetSamples)
		api.POST("/samples", auth, samples.ImportSamples)

		tl := api.Group("/timeline")
		{
			tl.POST("/rebuild", auth, timeline.Rebuild)
			tl.GET("/segments", timeline.GetSegments)
			tl.GET("/segments/:id", timeline.GetSegmentByID)
		}

		api.POST("/models/rebuild", auth, models.Rebuild)
	}

	return r
}
