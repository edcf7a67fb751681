package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/catalog"
	"github.com/example/cloudkitchen/pkg/config"
	"github.com/example/cloudkitchen/pkg/dashboard"
	"github.com/example/cloudkitchen/pkg/terminal"

	_ "github.com/example/cloudkitchen/docs"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReportExporter writes a sales report and returns where it went.
type ReportExporter interface {
	ExportReport(ctx context.Context, view dashboard.View) (string, error)
}

// Services are the components the HTTP API fronts.
type Services struct {
	Terminals *terminal.Registry
	Dashboard *dashboard.Dashboard
	Catalog   *catalog.Catalog
	Reports   ReportExporter
	Store     Pinger
}

type Gateway struct {
	config *config.Config
	svc    Services
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc Services) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config: cfg,
		svc:    svc,
		logger: logger.Named("gateway"),
		router: router,
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)

	v1 := g.router.Group("/api/v1")
	{
		menu := v1.Group("/catalog")
		{
			menu.GET("", g.listCatalog)
			menu.GET("/:category", g.getCategory)
		}

		terminals := v1.Group("/terminals/:terminal")
		{
			terminals.GET("/cart", g.getCart)
			terminals.POST("/cart/items", g.addItem)
			terminals.PATCH("/cart/items/:name", g.changeQuantity)
			terminals.DELETE("/cart/items/:name", g.removeItem)
			terminals.POST("/orders", g.placeOrder)
			terminals.GET("/summary", g.getSummary)
			terminals.DELETE("/summary", g.closeSummary)
			terminals.POST("/summary/export", g.exportSummary)
		}

		v1.GET("/dashboard", g.getDashboard)
		v1.GET("/dashboard/stream", g.streamDashboard)
		v1.POST("/dashboard/export", g.exportReport)
		v1.DELETE("/orders", g.clearOrders)
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Start serves until Shutdown is called.
func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Gateway.Host, g.config.Gateway.Port)
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

// requestContext bounds a handler's calls into the terminal actors.
func (g *Gateway) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := g.config.Gateway.RequestTimeout
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// health godoc
// @Summary Liveness and store reachability
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorResponse
// @Router /health [get]
func (g *Gateway) health(c *gin.Context) {
	if g.svc.Store != nil {
		if err := g.svc.Store.Ping(c.Request.Context()); err != nil {
			g.logger.Warn("Store ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if terminal := c.Param("terminal"); terminal != "" {
			fields = append(fields, zap.String("terminal", terminal))
		}
		logger.Info("HTTP request", fields...)
	}
}
