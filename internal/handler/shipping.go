package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harlow/go-storefront-api/internal/dto"
	"github.com/harlow/go-storefront-api/internal/pagination"
	"github.com/harlow/go-storefront-api/internal/service"
)

type ShippingHandler struct {
	shippingService *service.ShippingService
}

func NewShippingHandler(shippingService *service.ShippingService) *ShippingHandler {
	return &ShippingHandler{shippingService: shippingService}
}

func (h *ShippingHandler) Create(c *gin.Context) {
	var req dto.CreateShippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.shippingService.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrShippingMethodExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shipping method already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ShippingHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipping method ID"})
		return
	}

	resp, err := h.shippingService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrShippingMethodNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shipping method not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShippingHandler) List(c *gin.Context) {
	var req pagination.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.shippingService.List(c.Request.Context(), req)
	if err != nil {
		writeListError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShippingHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipping method ID"})
		return
	}

	var req dto.UpdateShippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.shippingService.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShippingMethodNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "shipping method not found"})
		case errors.Is(err, service.ErrShippingMethodExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "shipping method already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShippingHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipping method ID"})
		return
	}

	if err := h.shippingService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrShippingMethodNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shipping method not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
