package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"spotwise/internal/coordinator"
	"spotwise/internal/handler/api"
	"spotwise/internal/handler/middleware"
	"spotwise/internal/handler/ws"
	"spotwise/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Auth          *api.AuthHandler
	Reservation   *api.ReservationHandler
	Establishment *api.EstablishmentHandler
	Notification  *api.NotificationHandler
	Location      *api.LocationHandler
	OccupancyFeed *ws.OccupancyFeed
}

func NewRouter(engine *gin.Engine, cfg config.Config, h Handlers, coord *coordinator.Coordinator, authMiddleware *middleware.AuthMiddleware) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, h, coord, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, coord *coordinator.Coordinator, authMiddleware *middleware.AuthMiddleware) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	engine.GET("/ws/occupancy/:facility", h.OccupancyFeed.Handle(coord))

	apiGroup := engine.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			addRoutes(auth, []route{
				{Method: http.MethodPost, Path: "/login", Handler: h.Auth.Login},
			})

			authRequired := auth.Group("")
			authRequired.Use(authMiddleware.RequireAuth())
			addRoutes(authRequired, []route{
				{Method: http.MethodPost, Path: "/logout", Handler: h.Auth.Logout},
				{Method: http.MethodGet, Path: "/me", Handler: h.Auth.Me},
			})
		}

		establishments := apiGroup.Group("/establishments")
		establishments.Use(authMiddleware.RequireAuth())
		{
			addRoutes(establishments, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Establishment.List},
				{Method: http.MethodGet, Path: "/:name/slots", Handler: h.Establishment.Slots},
			})
		}

		reservations := apiGroup.Group("/reservations")
		reservations.Use(authMiddleware.RequireAuth())
		{
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: h.Reservation.Reserve},
				{Method: http.MethodGet, Path: "/current", Handler: h.Reservation.Current},
				{Method: http.MethodDelete, Path: "/current", Handler: h.Reservation.Cancel},
				{Method: http.MethodPost, Path: "/current/payment", Handler: h.Reservation.SubmitPayment},
			})
		}

		loc := apiGroup.Group("/location")
		loc.Use(authMiddleware.RequireAuth())
		{
			addRoutes(loc, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Location.Get},
				{Method: http.MethodPut, Path: "", Handler: h.Location.Put},
			})
		}

		notifications := apiGroup.Group("/notifications")
		notifications.Use(authMiddleware.RequireAuth())
		{
			addRoutes(notifications, []route{
				{Method: http.MethodGet, Path: "", Handler: h.Notification.List},
				{Method: http.MethodGet, Path: "/unread-count", Handler: h.Notification.UnreadCount},
				{Method: http.MethodPost, Path: "/:id/seen", Handler: h.Notification.MarkSeen},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
