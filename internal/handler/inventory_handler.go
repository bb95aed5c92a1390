package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	productService service.ProductService
	ledgerService  service.LedgerService
}

func NewInventoryHandler(productService service.ProductService, ledgerService service.LedgerService) *InventoryHandler {
	return &InventoryHandler{productService: productService, ledgerService: ledgerService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api")
	{
		inventory.GET("/products", middleware.RequirePermission("products.read"), h.GetProducts)
		inventory.GET("/products/:id", middleware.RequirePermission("products.read"), h.GetProduct)
		inventory.POST("/products", middleware.RequirePermission("products.write"), h.CreateProduct)
		inventory.PUT("/products/:id", middleware.RequirePermission("products.write"), h.UpdateProduct)
		inventory.DELETE("/products/:id", middleware.RequirePermission("products.write"), h.DeleteProduct)
		inventory.GET("/products/:id/movements", middleware.RequirePermission("inventory.read"), h.GetMovements)
		inventory.POST("/inventory/adjustments", middleware.RequirePermission("inventory.adjust"), h.AdjustStock)
	}
}

// GetProducts handles retrieving paginated catalog entries
// @Summary      Get products
// @Description  Retrieves a paginated list of products with current stock
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by product name"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/products [get]
func (h *InventoryHandler) GetProducts(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")

	companyID := c.GetString("companyID")

	products, total, err := h.productService.GetProducts(c.Request.Context(), companyID, p.Page, p.Limit, search)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.ListPayload("products", products, total)))
}

// GetProduct returns a single product
// @Summary      Get product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	companyID := c.GetString("companyID")

	product, err := h.productService.GetProduct(c.Request.Context(), companyID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct creates a new catalog entry
// @Summary      Create product
// @Description  Creates a new product entry; stock starts at zero and only moves through the ledger
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	product, err := h.productService.CreateProduct(c.Request.Context(), companyID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct updates an existing product's metadata
// @Summary      Update product
// @Description  Updates an existing product's details by ID; stock on hand is not writable here
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Product ID is missing"))
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	product, err := h.productService.UpdateProduct(c.Request.Context(), companyID, userID, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct removes a product entry softly
// @Summary      Delete product
// @Description  Soft deletes a product by ID
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Product ID is missing"))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	if err := h.productService.DeleteProduct(c.Request.Context(), companyID, userID, id); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// GetMovements returns a product's stock ledger
// @Summary      Get stock movements
// @Description  Retrieves the append-only movement ledger for a product, newest first
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Product ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/products/{id}/movements [get]
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	id := c.Param("id")
	p := pagination.Parse(c)

	movements, total, err := h.ledgerService.GetMovements(c.Request.Context(), id, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.ListPayload("movements", movements, total)))
}

// AdjustStock posts a manual stock correction
// @Summary      Adjust stock
// @Description  Applies a signed manual correction to a product's stock through the ledger; requires a note
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjustStockRequest  true  "Adjust Stock Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	result, err := h.ledgerService.AdjustStock(c.Request.Context(), companyID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movement_id":  result.MovementID.String(),
		"product_id":   result.ProductID.String(),
		"stock_before": result.StockBefore,
		"stock_after":  result.StockAfter,
	}))
}
