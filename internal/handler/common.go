package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harlow/go-storefront-api/internal/pagination"
)

// writeListError maps pagination failures to 400 and everything else to
// 500. Returns after writing a response.
func writeListError(c *gin.Context, err error) {
	var oor *pagination.OutOfRangeError
	if errors.As(err, &oor) {
		c.JSON(http.StatusBadRequest, gin.H{"error": oor.Error()})
		return
	}
	if errors.Is(err, pagination.ErrInvalidSize) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
