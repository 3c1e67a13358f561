package handlers

import (
	"field-verify/internal/farms"
	"field-verify/internal/gate"
	"field-verify/internal/jobs"
	"field-verify/internal/proximity"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Registry      *farms.Registry
	Sessions      *gate.Sessions
	Jobs          *jobs.Store
	Policy        proximity.Policy
	Credentials   Credentials
	SessionSecret string
	UploadDir     string
	OutputDir     string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("fvsession", store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{"farms": d.Registry.Len()}))
	})

	NewAuthHandler(d.Credentials, d.Sessions).RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(AuthRequired)
	{
		NewFarmHandler(d.Registry).RegisterRoutes(api)
		NewVerificationHandler(d.Registry, d.Sessions).RegisterRoutes(api)
		NewAuditHandler(d.Jobs, d.Policy, d.UploadDir, d.OutputDir).RegisterRoutes(api)
	}
	return r
}
