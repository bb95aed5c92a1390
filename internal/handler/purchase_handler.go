package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	purchases := router.Group("/api/purchases")
	{
		purchases.GET("", middleware.RequirePermission("purchases.read"), h.ListPurchases)
		purchases.GET("/:id", middleware.RequirePermission("purchases.read"), h.GetPurchase)
		purchases.POST("", middleware.RequirePermission("purchases.write"), h.CreatePurchase)
		purchases.POST("/:id/receive", middleware.RequirePermission("purchases.receive"), h.ReceivePurchase)
		purchases.POST("/:id/void", middleware.RequirePermission("purchases.write"), h.VoidPurchase)
	}
}

// CreatePurchase registers a pending purchase
// @Summary      Create purchase
// @Description  Creates a PENDING purchase; stock moves only when the purchase is received
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePurchaseRequest  true  "Create Purchase Payload"
// @Success      201      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), companyID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// ReceivePurchase moves a pending purchase's stock in
// @Summary      Receive purchase
// @Description  Marks a PENDING purchase RECEIVED and adds each line's quantity to stock through the ledger
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=service.PurchaseResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/purchases/{id}/receive [post]
func (h *PurchaseHandler) ReceivePurchase(c *gin.Context) {
	id := c.Param("id")
	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	purchase, err := h.purchaseService.ReceivePurchase(c.Request.Context(), companyID, userID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// VoidPurchase cancels a pending purchase
// @Summary      Void purchase
// @Description  Cancels a PENDING purchase; received purchases must be corrected through manual stock adjustments
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Purchase ID"
// @Param        payload  body      service.VoidPurchaseRequest  true  "Void Purchase Payload"
// @Success      200      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/purchases/{id}/void [post]
func (h *PurchaseHandler) VoidPurchase(c *gin.Context) {
	id := c.Param("id")

	var req service.VoidPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	purchase, err := h.purchaseService.VoidPurchase(c.Request.Context(), companyID, userID, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// GetPurchase returns a single purchase with its lines
// @Summary      Get purchase
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=service.PurchaseResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	id := c.Param("id")
	companyID := c.GetString("companyID")

	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), companyID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// ListPurchases returns paginated purchases
// @Summary      List purchases
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by status (PENDING, RECEIVED, VOID)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.Query("status")

	companyID := c.GetString("companyID")

	purchases, total, err := h.purchaseService.ListPurchases(c.Request.Context(), companyID, status, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.ListPayload("purchases", purchases, total)))
}
