package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpy/paths"
	"github.com/psds-microservice/work-buddy/api"
	"github.com/psds-microservice/work-buddy/internal/handler"
	"github.com/psds-microservice/work-buddy/internal/middleware"
	"github.com/psds-microservice/work-buddy/internal/model"
	"github.com/psds-microservice/work-buddy/internal/session"
	"github.com/psds-microservice/work-buddy/internal/web"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Deps struct {
	Auth          *handler.AuthHandler
	Desk          *handler.DeskHandler
	Web           *handler.WebHandler
	Sessions      *session.Manager
	SessionCookie string
	CORSAllowed   string
	Logger        zerolog.Logger
}

func New(d Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))

	if c := corsConfig(d.CORSAllowed); c != nil {
		r.Use(cors.New(*c))
	}
	r.Use(middleware.Session(d.Sessions, d.SessionCookie))

	r.SetHTMLTemplate(web.Templates())

	r.GET(paths.PathHealth, handler.Health)
	r.GET(paths.PathReady, handler.Ready)
	r.GET(paths.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, paths.PathSwagger+"/") })
	r.GET(paths.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = paths.PathSwagger + "/index.html"
			c.Request.RequestURI = paths.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(paths.PathSwagger+"/openapi.json"))(c)
	})

	// Login surface
	r.GET("/", d.Auth.LoginPage)
	r.POST("/login/user", d.Auth.UserLoginForm)
	r.POST("/login/admin", d.Auth.AdminLoginForm)
	r.POST("/login/google", d.Auth.GoogleLoginForm)
	r.POST("/logout", d.Auth.LogoutForm)

	userPages := r.Group("/user-dashboard", middleware.RequireRole(model.RoleUser, middleware.RedirectToLogin))
	{
		userPages.GET("", d.Web.UserDashboard)
		userPages.POST("/requests", d.Web.CreateRequest)
		userPages.POST("/select", d.Web.Select)
		userPages.POST("/messages", d.Web.Compose)
	}

	adminPages := r.Group("/admin-dashboard", middleware.RequireRole(model.RoleAdmin, middleware.RedirectToLogin))
	{
		adminPages.GET("", d.Web.AdminDashboard)
		adminPages.POST("/filter", d.Web.SetFilter)
		adminPages.POST("/select", d.Web.Select)
		adminPages.POST("/status", d.Web.SetStatus)
		adminPages.POST("/messages", d.Web.Compose)
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/user", d.Auth.UserLogin)
		v1.POST("/auth/admin", d.Auth.AdminLogin)
		v1.POST("/auth/google", d.Auth.GoogleLogin)
		v1.POST("/auth/logout", d.Auth.Logout)
		v1.GET("/session", d.Auth.Session)
	}

	me := v1.Group("/me", middleware.RequireRole(model.RoleUser, middleware.Unauthorized))
	{
		me.GET("/dashboard", d.Desk.Dashboard)
		me.GET("/requests", d.Desk.List)
		me.POST("/requests", d.Desk.Create)
		me.GET("/requests/:id", d.Desk.Get)
		me.PUT("/active", d.Desk.Select)
		me.POST("/messages", d.Desk.Compose)
	}

	admin := v1.Group("/admin", middleware.RequireRole(model.RoleAdmin, middleware.Unauthorized))
	{
		admin.GET("/dashboard", d.Desk.Dashboard)
		admin.GET("/requests", d.Desk.List)
		admin.GET("/requests/:id", d.Desk.Get)
		admin.PUT("/requests/:id/status", d.Desk.SetStatus)
		admin.PUT("/filter", d.Desk.SetFilter)
		admin.PUT("/active", d.Desk.Select)
		admin.POST("/messages", d.Desk.Compose)
		admin.GET("/users", d.Desk.Users)
		admin.GET("/stats", d.Desk.Stats)
	}

	return r
}

// corsConfig turns CORS_ALLOWED_ORIGINS into a cors config. An empty list
// means same-origin only and installs nothing. "*" opens the API to every
// origin without credentials, so the session cookie is never sent
// cross-origin; listed origins get credentialed access.
func corsConfig(allowed string) *cors.Config {
	var origins []string
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return nil
	}
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return &c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return &c
}
