package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	httpapi "github.com/friendpin/friendpin-backend/internal/api/http"
	"github.com/friendpin/friendpin-backend/internal/api/http/middleware"
	authmw "github.com/friendpin/friendpin-backend/internal/auth/middleware"
	"github.com/friendpin/friendpin-backend/internal/storage"
	usershttp "github.com/friendpin/friendpin-backend/internal/users/http"
	"github.com/friendpin/friendpin-backend/internal/users/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Backend        string
	Store          storage.Store
	Logger         zerolog.Logger
	Visit          service.VisitOptions
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// Verifier enables ID-token auth on the user routes when non-nil
	Verifier authmw.TokenVerifier
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Backend, dep.Store)
	healthHandler.RegisterRoutes(r)

	api := r.Group("")
	if dep.RateLimitRPS > 0 {
		api.Use(middleware.NewRateLimiter(dep.RateLimitRPS, dep.RateLimitBurst).Middleware())
	}
	if dep.Verifier != nil {
		api.Use(authmw.FirebaseAuthMiddleware(dep.Verifier))
	}

	usersHandler := usershttp.New(
		service.NewUserService(dep.Store),
		service.NewFriendService(dep.Store),
		service.NewVisitService(dep.Store, dep.Visit),
	)
	usersHandler.Register(api)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
