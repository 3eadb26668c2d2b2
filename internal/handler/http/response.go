package http

import (
	"github.com/gin-gonic/gin"

	"thumbio/internal/dto"
)

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, dto.ErrorDTO{Error: message})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}
