package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/work-buddy/internal/middleware"
	"github.com/psds-microservice/work-buddy/internal/model"
	"github.com/psds-microservice/work-buddy/internal/service"
	"github.com/psds-microservice/work-buddy/internal/store"
	"github.com/rs/zerolog"
)

// DeskHandler serves the dashboard operations as JSON. Routes are shared by
// the /me and /admin groups; the session decides what is visible.
type DeskHandler struct {
	svc service.DeskServicer
	log zerolog.Logger
}

func NewDeskHandler(svc service.DeskServicer, log zerolog.Logger) *DeskHandler {
	return &DeskHandler{svc: svc, log: log}
}

func (h *DeskHandler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context(), middleware.Current(c))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// List returns the visible requests, narrowed by ?status= when given.
func (h *DeskHandler) List(c *gin.Context) {
	filter, err := store.ParseStatusFilter(c.Query("status"))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	items, err := h.svc.VisibleRequests(c.Request.Context(), middleware.Current(c))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	items = store.FilterByStatus(items, filter)
	c.JSON(http.StatusOK, gin.H{
		"requests": items,
		"total":    len(items),
	})
}

func (h *DeskHandler) Get(c *gin.Context) {
	r, err := h.svc.Request(c.Request.Context(), middleware.Current(c), c.Param("id"))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type createRequestBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *DeskHandler) Create(c *gin.Context) {
	var req createRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body", nil)
		return
	}
	r, err := h.svc.CreateRequest(c.Request.Context(), middleware.Current(c), req.Title, req.Description)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

type statusBody struct {
	Status string `json:"status" binding:"required"`
}

func (h *DeskHandler) SetStatus(c *gin.Context) {
	var req statusBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body", nil)
		return
	}
	r, err := h.svc.SetStatus(c.Request.Context(), middleware.Current(c), c.Param("id"), model.RequestStatus(req.Status))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *DeskHandler) SetFilter(c *gin.Context) {
	var req statusBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body", nil)
		return
	}
	if err := h.svc.SetFilter(middleware.Current(c), req.Status); err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type selectBody struct {
	RequestID string `json:"request_id" binding:"required"`
}

func (h *DeskHandler) Select(c *gin.Context) {
	var req selectBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body", nil)
		return
	}
	if err := h.svc.Select(c.Request.Context(), middleware.Current(c), req.RequestID); err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type composeBody struct {
	Text string `json:"text"`
}

// Compose answers {"sent": false} rather than an error when nothing was
// sent; the composer guard is silent.
func (h *DeskHandler) Compose(c *gin.Context) {
	var req composeBody
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body", nil)
		return
	}
	sent, err := h.svc.Compose(c.Request.Context(), middleware.Current(c), req.Text)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func (h *DeskHandler) Users(c *gin.Context) {
	users, err := h.svc.Users(c.Request.Context(), middleware.Current(c))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

func (h *DeskHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), middleware.Current(c))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
