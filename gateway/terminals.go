package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/cloudkitchen/pkg/catalog"
	"github.com/example/cloudkitchen/pkg/checkout"
	"github.com/example/cloudkitchen/pkg/models"
)

type categoryResponse struct {
	Category string            `json:"category"`
	Items    []models.MenuItem `json:"items"`
}

type addItemRequest struct {
	Name string `json:"name" binding:"required"`
}

type changeQuantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type orderResponse struct {
	Order models.Order  `json:"order"`
	View  checkout.View `json:"view"`
}

type exportResponse struct {
	Summary checkout.Summary `json:"summary"`
	View    checkout.View    `json:"view"`
}

// listCatalog godoc
// @Summary List the menu by category
// @Tags catalog
// @Produce json
// @Success 200 {array} categoryResponse
// @Router /api/v1/catalog [get]
func (g *Gateway) listCatalog(c *gin.Context) {
	categories := g.svc.Catalog.Categories()
	resp := make([]categoryResponse, 0, len(categories))
	for _, name := range categories {
		items, _ := g.svc.Catalog.Items(name)
		resp = append(resp, categoryResponse{Category: name, Items: items})
	}
	c.JSON(http.StatusOK, resp)
}

// getCategory godoc
// @Summary List one menu category
// @Tags catalog
// @Produce json
// @Param category path string true "Category"
// @Success 200 {object} categoryResponse
// @Failure 404 {object} errorResponse
// @Router /api/v1/catalog/{category} [get]
func (g *Gateway) getCategory(c *gin.Context) {
	name := c.Param("category")
	items, ok := g.svc.Catalog.Items(name)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "Category not found"})
		return
	}
	c.JSON(http.StatusOK, categoryResponse{Category: name, Items: items})
}

// getCart godoc
// @Summary Show a terminal's cart and totals
// @Tags terminals
// @Produce json
// @Param terminal path string true "Terminal id"
// @Success 200 {object} checkout.View
// @Router /api/v1/terminals/{terminal}/cart [get]
func (g *Gateway) getCart(c *gin.Context) {
	ctx, cancel := g.requestContext(c)
	defer cancel()

	view, err := g.svc.Terminals.View(ctx, c.Param("terminal"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// addItem godoc
// @Summary Add one unit of a menu item to the cart
// @Tags terminals
// @Accept json
// @Produce json
// @Param terminal path string true "Terminal id"
// @Param item body addItemRequest true "Menu item"
// @Success 200 {object} checkout.View
// @Failure 404 {object} errorResponse
// @Router /api/v1/terminals/{terminal}/cart/items [post]
func (g *Gateway) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	item, err := g.svc.Catalog.Lookup(req.Name)
	if err != nil {
		g.writeError(c, err)
		return
	}

	ctx, cancel := g.requestContext(c)
	defer cancel()

	view, err := g.svc.Terminals.AddItem(ctx, c.Param("terminal"), catalog.CartItem(item))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// changeQuantity godoc
// @Summary Change the quantity of a cart line
// @Description A line whose quantity drops below one is removed.
// @Tags terminals
// @Accept json
// @Produce json
// @Param terminal path string true "Terminal id"
// @Param name path string true "Item name"
// @Param change body changeQuantityRequest true "Quantity delta"
// @Success 200 {object} checkout.View
// @Router /api/v1/terminals/{terminal}/cart/items/{name} [patch]
func (g *Gateway) changeQuantity(c *gin.Context) {
	var req changeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := g.requestContext(c)
	defer cancel()

	view, err := g.svc.Terminals.ChangeQuantity(ctx, c.Param("terminal"), c.Param("name"), req.Delta)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// removeItem godoc
// @Summary Remove a line from the cart
// @Tags terminals
// @Produce json
// @Param terminal path string true "Terminal id"
// @Param name path string true "Item name"
// @Success 200 {object} checkout.View
// @Router /api/v1/terminals/{terminal}/cart/items/{name} [delete]
func (g *Gateway) removeItem(c *gin.Context) {
	ctx, cancel := g.requestContext(c)
	defer cancel()

	view, err := g.svc.Terminals.RemoveItem(ctx, c.Param("terminal"), c.Param("name"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// placeOrder godoc
// @Summary Place an order from the cart
// @Description Records the order and opens the order summary. The summary closes by itself after the configured dwell.
// @Tags terminals
// @Produce json
// @Param terminal path string true "Terminal id"
// @Success 201 {object} orderResponse
// @Failure 400 {object} errorResponse
// @Router /api/v1/terminals/{terminal}/orders [post]
func (g *Gateway) placeOrder(c *gin.Context) {
	ctx, cancel := g.requestContext(c)
	defer cancel()

	order, view, err := g.svc.Terminals.PlaceOrder(ctx, c.Param("terminal"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderResponse{Order: order, View: view})
}

// getSummary godoc
// @Summary Show the open order summary
// @Tags terminals
// @Produce json
// @Param terminal path string true "Terminal id"
// @Success 200 {object} checkout.Summary
// @Failure 409 {object} errorResponse
// @Router /api/v1/terminals/{terminal}/summary [get]
func (g *Gateway) getSummary(c *gin.Context) {
	ctx, cancel := g.requestContext(c)
	defer cancel()

	view, err := g.svc.Terminals.View(ctx, c.Param("terminal"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	if view.Summary == nil {
		g.writeError(c, checkout.ErrNoSummary)
		return
	}
	c.JSON(http.StatusOK, view.Summary)
}

// closeSummary godoc
// @Summary Close the order summary and reset the cart
// @Tags terminals
// @Produce json
// @Param terminal path string true "Terminal id"
// @Success 200 {object} checkout.View
// @Failure 409 {object} errorResponse
// @Router /api/v1/terminals/{terminal}/summary [delete]
func (g *Gateway) closeSummary(c *gin.Context) {
	ctx, cancel := g.requestContext(c)
	defer cancel()

	view, err := g.svc.Terminals.CloseSummary(ctx, c.Param("terminal"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// exportSummary godoc
// @Summary Export the order summary and finish the checkout
// @Tags terminals
// @Produce json
// @Param terminal path string true "Terminal id"
// @Success 200 {object} exportResponse
// @Failure 409 {object} errorResponse
// @Router /api/v1/terminals/{terminal}/summary/export [post]
func (g *Gateway) exportSummary(c *gin.Context) {
	// Exports may outlive the usual request timeout.
	summary, view, err := g.svc.Terminals.ExportSummary(c.Request.Context(), c.Param("terminal"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, exportResponse{Summary: summary, View: view})
}
