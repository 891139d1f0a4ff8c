package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/inventory"
	"github.com/fauzanhr/pharmastock-service/internal/inventory/dto"
	"github.com/fauzanhr/pharmastock-service/internal/model"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger *zap.Logger
}

func NewInventoryHandler(uc inventory.UseCase, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, logger: logger}
}

func (h *InventoryHandler) Register(r gin.IRouter) {
	r.GET("/inventory", h.List)
	r.GET("/inventory/:location_id/line", h.GetLine)
	r.POST("/inventory", h.Upsert)
}

func (h *InventoryHandler) List(c *gin.Context) {
	filters := &dto.LineFilters{
		LocationID:  c.Query("location_id"),
		Description: c.Query("description"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 0),
	}
	if raw := c.Query("low_stock_below"); raw != "" {
		threshold, err := decimal.NewFromString(raw)
		if err != nil {
			h.respondErr(c, apperr.Validationf("low_stock_below must be a number"))
			return
		}
		filters.LowStockBelow = &threshold
	}

	items, total, err := h.uc.List(c.Request.Context(), filters)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *InventoryHandler) GetLine(c *gin.Context) {
	key := model.LineKey{
		LocationID:  c.Param("location_id"),
		Description: c.Query("description"),
		Unit:        c.Query("unit"),
	}
	if key.Description == "" || key.Unit == "" {
		h.respondErr(c, apperr.Validationf("description and unit query parameters are required"))
		return
	}
	line, err := h.uc.GetLine(c.Request.Context(), key)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *InventoryHandler) Upsert(c *gin.Context) {
	var input dto.UpsertLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondErr(c, apperr.Validationf("invalid request body: %v", err))
		return
	}
	line, err := h.uc.UpsertLine(c.Request.Context(), auth.FromContext(c), &input)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *InventoryHandler) respondErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("inventory request failed", zap.Error(err))
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
