package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/noisefield/internal/cache"
	"github.com/annel0/noisefield/internal/logging"
	"github.com/annel0/noisefield/internal/middleware"
	"github.com/annel0/noisefield/internal/sampler"
	"github.com/annel0/noisefield/internal/shape"
)

// FieldCounter сообщает число полей в холодном хранилище.
type FieldCounter interface {
	Count() (int, error)
}

// InvalidationStats отдаёт счётчики рассылки инвалидаций.
type InvalidationStats interface {
	Stats() cache.InvalidatorStats
}

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	service *sampler.Service
	cache   cache.CacheRepo
	store   FieldCounter
	peers   InvalidationStats
	port    string
	metrics *ServerMetrics
	log     *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // порт для запуска сервера
	Service  *sampler.Service     // сервис вычисления шума
	Cache    cache.CacheRepo      // для /api/stats, может быть nil
	Store    FieldCounter         // для /api/stats, может быть nil
	Peers    InvalidationStats    // для /api/stats, может быть nil
	Registry *prometheus.Registry // nil — дефолтный регистр prometheus
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger(logging.GetServerLogger())
	router.Use(otelgin.Middleware("noisefield"))
	router.Use(loggerMw.Handler())

	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("noisefield", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	rs := &RestServer{
		router:  router,
		service: config.Service,
		cache:   config.Cache,
		store:   config.Store,
		peers:   config.Peers,
		port:    config.Port,
		metrics: NewServerMetrics(),
		log:     logging.GetServerLogger(),
	}
	rs.server = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	rs.setupRoutes()
	return rs
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/kinds", rs.handleKinds)
		api.GET("/stats", rs.handleStats)

		noiseGroup := api.Group("/noise")
		noiseGroup.POST("/sample", rs.handleSample)
		noiseGroup.POST("/field", rs.handleField)
		noiseGroup.DELETE("/field", rs.handleInvalidate)
		noiseGroup.POST("/hash", rs.handleHash)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler сервера (удобно для httptest).
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SampleRequest — параметры шума плюс произвольные точки.
type SampleRequest struct {
	sampler.Request
	Points []mgl32.Vec3 `json:"points"`
}

// SampleResponse — значения шума в порядке точек запроса.
type SampleResponse struct {
	Values []float32 `json:"values"`
}

// KindsResponse перечисляет типы шума и формы.
type KindsResponse struct {
	Kinds  []string `json:"kinds"`
	Shapes []string `json:"shapes"`
}

func (rs *RestServer) handleKinds(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Доступные типы шума",
		Data:    KindsResponse{Kinds: sampler.KindNames(), Shapes: shape.Names()},
	})
}

func (rs *RestServer) handleSample(c *gin.Context) {
	var req SampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	values, err := rs.service.Sample(c.Request.Context(), req.Request, req.Points)
	if err != nil {
		rs.writeError(c, "sample", err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Вычислено %d значений", len(values)),
		Data:    SampleResponse{Values: values},
	})
}

func (rs *RestServer) handleField(c *gin.Context) {
	var req sampler.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	field, err := rs.service.Field(c.Request.Context(), req)
	if err != nil {
		rs.writeError(c, "field", err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Поле вычислено",
		Data:    field,
	})
}

func (rs *RestServer) handleInvalidate(c *gin.Context) {
	var req sampler.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if err := rs.service.Invalidate(c.Request.Context(), req); err != nil {
		rs.writeError(c, "invalidate", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Поле удалено из кеша",
		Data:    gin.H{"key": req.Normalize().Key()},
	})
}

func (rs *RestServer) handleHash(c *gin.Context) {
	var req sampler.HashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	field, err := rs.service.HashField(c.Request.Context(), req)
	if err != nil {
		rs.writeError(c, "hash", err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: fmt.Sprintf("Вычислено %d хешей", len(field.Hashes)),
		Data:    field,
	})
}

// writeError переводит ошибку сервиса в HTTP-статус.
func (rs *RestServer) writeError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case sampler.IsInvalidRequest(err):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	default:
		rs.log.Error("Ошибка %s: %v", op, err)
	}
	c.JSON(status, GenericResponse{
		Success: false,
		Message: err.Error(),
	})
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	stats["server"] = rs.metrics.Snapshot()

	limits := rs.service.Limits()
	stats["limits"] = map[string]interface{}{
		"max_resolution": limits.MaxResolution,
		"max_points":     limits.MaxPoints,
	}

	stats["workers"] = rs.service.Workers()

	if rs.cache != nil {
		stats["cache"] = rs.cache.GetMetrics()
	}
	if rs.peers != nil {
		stats["invalidations"] = rs.peers.Stats()
	}
	if rs.store != nil {
		if count, err := rs.store.Count(); err == nil {
			stats["stored_fields"] = count
		} else {
			rs.log.Warn("Не удалось посчитать поля в хранилище: %v", err)
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер и блокируется до остановки.
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.port)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop плавно останавливает REST сервер.
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
