package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/api/suppliers")
	{
		suppliers.GET("", middleware.RequirePermission("suppliers.read"), h.GetSuppliers)
		suppliers.GET("/:id", middleware.RequirePermission("suppliers.read"), h.GetSupplier)
		suppliers.POST("", middleware.RequirePermission("suppliers.write"), h.CreateSupplier)
		suppliers.PUT("/:id", middleware.RequirePermission("suppliers.write"), h.UpdateSupplier)
		suppliers.DELETE("/:id", middleware.RequirePermission("suppliers.write"), h.DeleteSupplier)
	}
}

// GetSuppliers returns paginated suppliers
// @Summary      List suppliers
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by supplier name"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/suppliers [get]
func (h *SupplierHandler) GetSuppliers(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")

	companyID := c.GetString("companyID")

	suppliers, total, err := h.supplierService.GetSuppliers(c.Request.Context(), companyID, p.Page, p.Limit, search)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.ListPayload("suppliers", suppliers, total)))
}

// GetSupplier returns a single supplier
// @Summary      Get supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response{data=service.SupplierResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [get]
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	id := c.Param("id")
	companyID := c.GetString("companyID")

	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), companyID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// CreateSupplier registers a new supplier
// @Summary      Create supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSupplierRequest  true  "Create Supplier Payload"
// @Success      201      {object}  response.Response{data=service.SupplierResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/suppliers [post]
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), companyID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// UpdateSupplier updates an existing supplier
// @Summary      Update supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Supplier ID"
// @Param        payload  body      service.UpdateSupplierRequest  true  "Update Supplier Payload"
// @Success      200      {object}  response.Response{data=service.SupplierResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/suppliers/{id} [put]
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	id := c.Param("id")

	var req service.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), companyID, userID, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// DeleteSupplier soft deletes a supplier
// @Summary      Delete supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [delete]
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	id := c.Param("id")
	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	if err := h.supplierService.DeleteSupplier(c.Request.Context(), companyID, userID, id); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Supplier deleted successfully"))
}
