package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/api/sales")
	{
		sales.GET("", middleware.RequirePermission("sales.read"), h.ListSales)
		sales.GET("/:id", middleware.RequirePermission("sales.read"), h.GetSale)
		sales.POST("", middleware.RequirePermission("sales.issue"), h.IssueSale)
		sales.POST("/:id/void", middleware.RequirePermission("sales.void"), h.VoidSale)
	}
}

// IssueSale posts a new invoice
// @Summary      Issue sale
// @Description  Posts an invoice: assigns the invoice number, computes withholdings and fiscal encodings, decrements stock and records payments atomically
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.IssueSaleRequest  true  "Issue Sale Payload"
// @Success      201      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/sales [post]
func (h *SaleHandler) IssueSale(c *gin.Context) {
	var req service.IssueSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	sale, err := h.saleService.IssueSale(c.Request.Context(), companyID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}

// VoidSale voids a posted sale
// @Summary      Void sale
// @Description  Flips a POSTED sale to VOID and restores the stock consumed by its immediate lines
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Sale ID"
// @Param        payload  body      service.VoidSaleRequest  true  "Void Sale Payload"
// @Success      200      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/sales/{id}/void [post]
func (h *SaleHandler) VoidSale(c *gin.Context) {
	id := c.Param("id")

	var req service.VoidSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	sale, err := h.saleService.VoidSale(c.Request.Context(), companyID, userID, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// GetSale returns a single sale with its lines, taxes and payments
// @Summary      Get sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	id := c.Param("id")
	companyID := c.GetString("companyID")

	sale, err := h.saleService.GetSale(c.Request.Context(), companyID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// ListSales returns paginated sales
// @Summary      List sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Param        status          query     string  false  "Filter by status (POSTED, VOID)"
// @Param        invoice_number  query     string  false  "Partial invoice number match"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.Query("status")
	invoiceNumber := c.Query("invoice_number")

	companyID := c.GetString("companyID")

	sales, total, err := h.saleService.ListSales(c.Request.Context(), companyID, status, invoiceNumber, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.ListPayload("sales", sales, total)))
}
