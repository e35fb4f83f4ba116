package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/middleware"
	"github.com/psds-microservice/work-buddy/internal/model"
	"github.com/psds-microservice/work-buddy/internal/service"
	"github.com/psds-microservice/work-buddy/internal/session"
	"github.com/psds-microservice/work-buddy/internal/web"
	"github.com/rs/zerolog"
)

// WebHandler renders the dashboards and handles their form posts. Every
// post redirects back to the dashboard, which then re-renders from the store.
type WebHandler struct {
	svc service.DeskServicer
	log zerolog.Logger
}

func NewWebHandler(svc service.DeskServicer, log zerolog.Logger) *WebHandler {
	return &WebHandler{svc: svc, log: log}
}

type dashboardPage struct {
	service.Dashboard
	ComposeAction string
}

func (h *WebHandler) render(c *gin.Context, page string) {
	s := middleware.Current(c)
	d, err := h.svc.Dashboard(c.Request.Context(), s)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, page, dashboardPage{
		Dashboard:     d,
		ComposeAction: DashboardPath(s.Role) + "/messages",
	})
}

func (h *WebHandler) back(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, DashboardPath(middleware.Current(c).Role))
}

func (h *WebHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, errs.ErrUnauthorized) {
		middleware.RedirectToLogin(c)
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("dashboard")
	c.String(http.StatusInternalServerError, "internal error")
}

// notice keeps silent no-ops silent and turns expected validation errors
// into a one-shot inline message.
func (h *WebHandler) notice(c *gin.Context, err error, msg string) {
	if err == nil {
		return
	}
	if errors.Is(err, errs.ErrEmptyField) || errors.Is(err, errs.ErrInvalidStatus) {
		middleware.Current(c).UpdateView(func(v *session.ViewState) { v.Notice = msg })
		return
	}
	if errors.Is(err, errs.ErrRequestNotFound) {
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("dashboard action")
}

func (h *WebHandler) UserDashboard(c *gin.Context) {
	h.render(c, web.PageUser)
}

func (h *WebHandler) AdminDashboard(c *gin.Context) {
	h.render(c, web.PageAdmin)
}

func (h *WebHandler) CreateRequest(c *gin.Context) {
	_, err := h.svc.CreateRequest(c.Request.Context(), middleware.Current(c), c.PostForm("title"), c.PostForm("description"))
	h.notice(c, err, "Title and description are both required.")
	h.back(c)
}

func (h *WebHandler) Select(c *gin.Context) {
	err := h.svc.Select(c.Request.Context(), middleware.Current(c), c.PostForm("request_id"))
	h.notice(c, err, "")
	h.back(c)
}

func (h *WebHandler) Compose(c *gin.Context) {
	_, err := h.svc.Compose(c.Request.Context(), middleware.Current(c), c.PostForm("text"))
	h.notice(c, err, "")
	h.back(c)
}

func (h *WebHandler) SetFilter(c *gin.Context) {
	err := h.svc.SetFilter(middleware.Current(c), c.PostForm("status"))
	h.notice(c, err, "Unknown status filter.")
	h.back(c)
}

func (h *WebHandler) SetStatus(c *gin.Context) {
	_, err := h.svc.SetStatus(c.Request.Context(), middleware.Current(c), c.PostForm("request_id"), model.RequestStatus(c.PostForm("status")))
	h.notice(c, err, "Unknown status.")
	h.back(c)
}
