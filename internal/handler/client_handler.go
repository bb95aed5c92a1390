package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clientService service.ClientService
}

func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) RegisterRoutes(router *gin.RouterGroup) {
	clients := router.Group("/api/clients")
	{
		clients.GET("", middleware.RequirePermission("clients.read"), h.GetClients)
		clients.GET("/:id", middleware.RequirePermission("clients.read"), h.GetClient)
		clients.POST("", middleware.RequirePermission("clients.write"), h.CreateClient)
		clients.PUT("/:id", middleware.RequirePermission("clients.write"), h.UpdateClient)
		clients.DELETE("/:id", middleware.RequirePermission("clients.write"), h.DeleteClient)
	}
}

// GetClients returns paginated clients
// @Summary      List clients
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by name or document number"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/clients [get]
func (h *ClientHandler) GetClients(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")

	companyID := c.GetString("companyID")

	clients, total, err := h.clientService.GetClients(c.Request.Context(), companyID, p.Page, p.Limit, search)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.ListPayload("clients", clients, total)))
}

// GetClient returns a single client
// @Summary      Get client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response{data=service.ClientResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	id := c.Param("id")
	companyID := c.GetString("companyID")

	client, err := h.clientService.GetClient(c.Request.Context(), companyID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// CreateClient registers a new client
// @Summary      Create client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateClientRequest  true  "Create Client Payload"
// @Success      201      {object}  response.Response{data=service.ClientResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req service.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	client, err := h.clientService.CreateClient(c.Request.Context(), companyID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, client))
}

// UpdateClient updates an existing client
// @Summary      Update client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Client ID"
// @Param        payload  body      service.UpdateClientRequest  true  "Update Client Payload"
// @Success      200      {object}  response.Response{data=service.ClientResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id := c.Param("id")

	var req service.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	client, err := h.clientService.UpdateClient(c.Request.Context(), companyID, userID, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// DeleteClient soft deletes a client
// @Summary      Delete client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id := c.Param("id")
	companyID := c.GetString("companyID")
	userID := c.GetString("userID")

	if err := h.clientService.DeleteClient(c.Request.Context(), companyID, userID, id); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Client deleted successfully"))
}
