package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estate-api/internal/service"
	resp "estate-api/internal/transport/http/response"
)

type PropertyHandler struct {
	props *service.PropertyService
	log   *zap.Logger
}

func NewPropertyHandler(props *service.PropertyService, log *zap.Logger) *PropertyHandler {
	return &PropertyHandler{props: props, log: log}
}

// GET /api/properties — public listing of published properties.
func (h *PropertyHandler) ListPublished(c *gin.Context) {
	var q listQ
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	listing, err := h.props.ListPublished(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, listing)
}

// POST /admin/v1/properties/:id/archive
func (h *PropertyHandler) Archive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.props.Archive(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	resp.OK(c, http.StatusOK, gin.H{"property": p})
}
