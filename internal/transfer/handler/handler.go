package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fauzanhr/pharmastock-service/internal/apperr"
	"github.com/fauzanhr/pharmastock-service/internal/auth"
	"github.com/fauzanhr/pharmastock-service/internal/model"
	"github.com/fauzanhr/pharmastock-service/internal/transfer"
	"github.com/fauzanhr/pharmastock-service/internal/transfer/dto"
)

type TransferHandler struct {
	uc     transfer.UseCase
	logger *zap.Logger
}

func NewTransferHandler(uc transfer.UseCase, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, logger: logger}
}

func (h *TransferHandler) Register(r gin.IRouter) {
	r.POST("/transfers", h.Create)
	r.GET("/transfers", h.List)
	r.GET("/transfers/:id", h.Get)
	r.POST("/transfers/:id/approve", h.Approve)
	r.POST("/transfers/:id/reject", h.Reject)
	r.POST("/transfers/:id/ship", h.Ship)
	r.POST("/transfers/:id/deliver", h.Deliver)
	r.POST("/transfers/:id/cancel", h.Cancel)
}

func (h *TransferHandler) Create(c *gin.Context) {
	var input dto.CreateTransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondErr(c, apperr.Validationf("invalid request body: %v", err))
		return
	}
	created, err := h.uc.Create(c.Request.Context(), auth.FromContext(c), &input)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transfers": created})
}

func (h *TransferHandler) List(c *gin.Context) {
	filters := &dto.TransferFilters{
		Status:     model.TransferStatus(c.Query("status")),
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

func (h *TransferHandler) Get(c *gin.Context) {
	t, err := h.uc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) Approve(c *gin.Context) {
	t, err := h.uc.Approve(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) Reject(c *gin.Context) {
	var input dto.RejectTransferInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		h.respondErr(c, apperr.Validationf("invalid request body: %v", err))
		return
	}
	t, err := h.uc.Reject(c.Request.Context(), auth.FromContext(c), c.Param("id"), input.Reason)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) Ship(c *gin.Context) {
	t, err := h.uc.Ship(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) Deliver(c *gin.Context) {
	t, err := h.uc.Deliver(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) Cancel(c *gin.Context) {
	t, err := h.uc.Cancel(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransferHandler) respondErr(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("transfer request failed", zap.Error(err))
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
