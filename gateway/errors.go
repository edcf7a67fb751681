package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/cloudkitchen/pkg/catalog"
	"github.com/example/cloudkitchen/pkg/checkout"
	"github.com/example/cloudkitchen/pkg/dashboard"
	"github.com/example/cloudkitchen/pkg/terminal"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Messages shown to the operator, keyed by the error they explain.
var userErrors = []struct {
	err     error
	status  int
	message string
}{
	{checkout.ErrEmptyCart, http.StatusBadRequest, "Your cart is empty."},
	{checkout.ErrNoSummary, http.StatusConflict, "No order summary is open."},
	{dashboard.ErrMissingRange, http.StatusBadRequest, "Please select both start and end dates"},
	{dashboard.ErrInvalidDate, http.StatusBadRequest, "Dates must be in YYYY-MM-DD format"},
	{dashboard.ErrConfirmationRequired, http.StatusBadRequest, "Clearing all sales data requires confirm=true"},
	{terminal.ErrInvalidTerminal, http.StatusBadRequest, "Terminal ids are 1-64 letters, digits, '-' or '_'"},
	{terminal.ErrExportUnavailable, http.StatusServiceUnavailable, "Export is not configured"},
	{catalog.ErrUnknownItem, http.StatusNotFound, "Item is not on the menu"},
}

func (g *Gateway) writeError(c *gin.Context, err error) {
	for _, ue := range userErrors {
		if errors.Is(err, ue.err) {
			c.JSON(ue.status, errorResponse{Error: ue.message})
			return
		}
	}

	if errors.Is(err, actor.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		g.logger.Warn("Request timed out", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusGatewayTimeout, errorResponse{Error: "request timed out"})
		return
	}

	g.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
