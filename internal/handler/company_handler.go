package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct {
	companyService service.CompanyService
}

func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	company := router.Group("/api/company")
	{
		company.GET("", middleware.RequirePermission("company.manage"), h.GetCompany)
		company.PUT("", middleware.RequirePermission("company.manage"), h.UpdateCompany)
	}
}

// GetCompany returns the caller's company profile
// @Summary      Get company
// @Description  Retrieves the tenant's fiscal profile including the current invoice sequence
// @Tags         company
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.CompanyResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/company [get]
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	companyID := c.GetString("companyID")

	company, err := h.companyService.GetCompany(c.Request.Context(), companyID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}

// UpdateCompany updates the fiscal profile
// @Summary      Update company
// @Description  Updates the tenant's name and fiscal profile; the invoice sequence itself only moves through sale posting
// @Tags         company
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UpdateCompanyRequest  true  "Update Company Payload"
// @Success      200      {object}  response.Response{data=service.CompanyResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/company [put]
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	company, err := h.companyService.UpdateCompany(c.Request.Context(), companyID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}
