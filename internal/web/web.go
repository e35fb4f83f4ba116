// Package web holds the server-rendered pages: login and the two dashboards.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/psds-microservice/work-buddy/internal/model"
)

//go:embed templates/*.tmpl
var files embed.FS

const (
	PageLogin = "login.tmpl"
	PageUser  = "user_dashboard.tmpl"
	PageAdmin = "admin_dashboard.tmpl"
)

var funcs = template.FuncMap{
	"statusClass": func(s model.RequestStatus) string {
		switch s {
		case model.RequestStatusPending:
			return "status-pending"
		case model.RequestStatusInProgress:
			return "status-in-progress"
		case model.RequestStatusCompleted:
			return "status-completed"
		}
		return "status-unknown"
	},
	"priorityClass": func(p model.Priority) string {
		return "priority-" + string(p)
	},
	"ticks": func(d model.DeliveryStatus) string {
		switch d {
		case model.DeliverySent:
			return "✓"
		case model.DeliveryDelivered, model.DeliveryRead:
			return "✓✓"
		}
		return ""
	},
	"clock": func(t time.Time) string {
		return t.Format("15:04")
	},
	"ago":      Ago,
	"statuses": func() []model.RequestStatus { return model.RequestStatuses },
}

// Ago renders a coarse relative time such as "3h ago".
func Ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

// Templates parses every page. It panics on a malformed template, which can
// only happen at build time.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.tmpl"))
}

// LoginPage is the data of the login screen.
type LoginPage struct {
	Tab           string
	Email         string
	Username      string
	UserErrors    map[string]string
	AdminErrors   map[string]string
	AdminUsername string
}
