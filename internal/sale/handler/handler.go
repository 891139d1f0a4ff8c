package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/sale"
	"github.com/fauzanhr/pharmastock-service/internal/sale/dto"
)

type SaleHandler struct {
	uc     sale.UseCase
	logger *zap.Logger
}

func NewSaleHandler(uc sale.UseCase, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{uc: uc, logger: logger}
}

func (h *SaleHandler) Register(r gin.IRouter) {
	r.POST("/sales", h.Record)
	r.GET("/sales", h.List)
	r.GET("/sales/:id", h.Get)
	r.DELETE("/sales/:id", h.Delete)
}

func (h *SaleHandler) Record(c *gin.Context) {
	var input dto.RecordSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondErr(c, apperr.Validationf("invalid request body: %v", err))
		return
	}
	s, err := h.uc.Record(c.Request.Context(), auth.FromContext(c), &input)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *SaleHandler) List(c *gin.Context) {
	filters := &dto.SaleFilters{
		LocationID: c.Query("location_id"),
		SoldBy:     c.Query("sold_by"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 0),
	}
	items, total, err := h.uc.List(c.Request.Context(), filters)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *SaleHandler) Get(c *gin.Context) {
	s, err := h.uc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SaleHandler) Delete(c *gin.Context) {
	if err := h.uc.Delete(c.Request.Context(), auth.FromContext(c), c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SaleHandler) respondErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("sale request failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
