package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/dashboard"
)

const streamKeepAlive = 15 * time.Second

// getDashboard godoc
// @Summary Sales figures for a period
// @Tags dashboard
// @Produce json
// @Param period query string false "today, week, month, year, custom or all" default(today)
// @Param from query string false "Custom range start, YYYY-MM-DD"
// @Param to query string false "Custom range end, YYYY-MM-DD"
// @Success 200 {object} dashboard.View
// @Failure 400 {object} errorResponse
// @Router /api/v1/dashboard [get]
func (g *Gateway) getDashboard(c *gin.Context) {
	var q dashboard.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	view, err := g.svc.Dashboard.View(c.Request.Context(), q)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// streamDashboard godoc
// @Summary Live dashboard updates
// @Description Server-sent events. A "dashboard" event carries the full view on connect and after every change to the order history.
// @Tags dashboard
// @Produce text/event-stream
// @Param period query string false "today, week, month, year, custom or all" default(today)
// @Param from query string false "Custom range start, YYYY-MM-DD"
// @Param to query string false "Custom range end, YYYY-MM-DD"
// @Router /api/v1/dashboard/stream [get]
func (g *Gateway) streamDashboard(c *gin.Context) {
	var q dashboard.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	view, err := g.svc.Dashboard.View(ctx, q)
	if err != nil {
		g.writeError(c, err)
		return
	}

	updates, cancel := g.svc.Dashboard.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	send := func(v dashboard.View) {
		c.SSEvent("dashboard", v)
		c.Writer.Flush()
	}
	send(view)

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			c.Writer.Flush()
		case <-updates:
			view, err := g.svc.Dashboard.View(ctx, q)
			if err != nil {
				g.logger.Warn("Failed to refresh dashboard stream", zap.Error(err))
				continue
			}
			send(view)
		}
	}
}

// exportReport godoc
// @Summary Export the sales report for a period
// @Tags dashboard
// @Produce json
// @Param period query string false "today, week, month, year, custom or all" default(today)
// @Param from query string false "Custom range start, YYYY-MM-DD"
// @Param to query string false "Custom range end, YYYY-MM-DD"
// @Success 201 {object} map[string]string
// @Failure 400 {object} errorResponse
// @Router /api/v1/dashboard/export [post]
func (g *Gateway) exportReport(c *gin.Context) {
	if g.svc.Reports == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "Export is not configured"})
		return
	}

	var q dashboard.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	view, err := g.svc.Dashboard.View(c.Request.Context(), q)
	if err != nil {
		g.writeError(c, err)
		return
	}

	path, err := g.svc.Reports.ExportReport(c.Request.Context(), view)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": path})
}

// clearOrders godoc
// @Summary Delete every recorded order
// @Description Destructive. Requires confirm=true.
// @Tags dashboard
// @Param confirm query bool true "Must be true"
// @Success 204
// @Failure 400 {object} errorResponse
// @Router /api/v1/orders [delete]
func (g *Gateway) clearOrders(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := g.svc.Dashboard.ClearHistory(c.Request.Context(), confirmed); err != nil {
		g.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
