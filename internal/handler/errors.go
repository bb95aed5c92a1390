package handler

import (
	"net/http"

	"backend/pkg/apperr"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeServiceError maps a service error to the HTTP status carried by its
// error code. Unclassified errors come back as 503: the transaction rolled
// back and the client may retry.
func writeServiceError(c *gin.Context, err error) {
	if e := apperr.As(err); e != nil {
		status := apperr.HTTPStatus(err)
		if len(e.Details()) > 0 {
			c.JSON(status, response.ErrorWithDetails(status, e.Message(), e.Details()))
			return
		}
		c.JSON(status, response.Error(status, e.Message()))
		return
	}
	c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, err.Error()))
}
