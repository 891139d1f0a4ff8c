package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/delivery"
	"github.com/fauzanhr/pharmastock-service/internal/delivery/dto"
	"github.com/fauzanhr/pharmastock-service/internal/model"
)

type DeliveryHandler struct {
	uc     delivery.UseCase
	logger *zap.Logger
}

func NewDeliveryHandler(uc delivery.UseCase, logger *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{uc: uc, logger: logger}
}

func (h *DeliveryHandler) Register(r gin.IRouter) {
	r.POST("/deliveries", h.Create)
	r.GET("/deliveries", h.List)
	r.GET("/deliveries/:id", h.Get)
	r.POST("/deliveries/:id/confirm", h.AdminConfirm)
	r.POST("/deliveries/:id/accept", h.Accept)
	r.POST("/deliveries/:id/complete", h.DirectComplete)
	r.POST("/deliveries/:id/cancel", h.Cancel)
	r.DELETE("/deliveries/:id", h.Delete)
}

func (h *DeliveryHandler) Create(c *gin.Context) {
	var input dto.CreateDeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondErr(c, apperr.Validationf("invalid request body: %v", err))
		return
	}
	d, err := h.uc.Create(c.Request.Context(), auth.FromContext(c), &input)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DeliveryHandler) List(c *gin.Context) {
	filters := &dto.DeliveryFilters{
		Status:     model.DeliveryStatus(c.Query("status")),
		LocationID: c.Query("location_id"),
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

func (h *DeliveryHandler) Get(c *gin.Context) {
	d, err := h.uc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) AdminConfirm(c *gin.Context) {
	d, err := h.uc.AdminConfirm(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) Accept(c *gin.Context) {
	d, err := h.uc.Accept(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) DirectComplete(c *gin.Context) {
	d, err := h.uc.DirectComplete(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) Cancel(c *gin.Context) {
	d, err := h.uc.Cancel(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) Delete(c *gin.Context) {
	if err := h.uc.Delete(c.Request.Context(), auth.FromContext(c), c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeliveryHandler) respondErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("delivery request failed", zap.Error(err))
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
