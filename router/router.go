package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/delivery-services/config"
	"github.com/yeremiapane/delivery-services/controllers"
	"github.com/yeremiapane/delivery-services/events"
	"github.com/yeremiapane/delivery-services/middlewares"
	"github.com/yeremiapane/delivery-services/services"
	"github.com/yeremiapane/delivery-services/utils"
	"gorm.io/gorm"
)

// SetupRouter mounts the handler groups enabled in cfg on one engine.
func SetupRouter(cfg *config.Config, db *gorm.DB, dispatcher *services.NotificationDispatcher, hub *events.Hub) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSAllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		utils.RespondMessage(c, http.StatusNotFound, "Resource not found")
	})
	r.NoMethod(func(c *gin.Context) {
		utils.RespondMessage(c, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.GET("/health", func(c *gin.Context) {
		resp := gin.H{"status": "ok", "services": cfg.Services}
		if dispatcher != nil {
			pending, err := dispatcher.PendingCount(c.Request.Context())
			if err != nil {
				utils.RespondFailure(c, err)
				return
			}
			resp["dispatcher"] = dispatcher.GetMetrics()
			resp["pending"] = pending
		}
		c.JSON(http.StatusOK, resp)
	})

	if hub != nil {
		r.GET("/events/ws", hub.Handler)
	}

	// Nil interfaces, not typed nil pointers, when no dispatcher or hub runs.
	var kicker controllers.Kicker
	if dispatcher != nil {
		kicker = dispatcher
	}
	var publisher services.Publisher
	if hub != nil {
		publisher = hub
	}

	// ----------------------------------------------------------------
	//                      ACCOUNT SERVICE
	// ----------------------------------------------------------------
	if cfg.Enabled(config.ServiceAccount) {
		accountCtrl := controllers.NewAccountController(db, []byte(cfg.JWTSecret))
		loginLimiter := middlewares.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRatePerMinute)

		account := r.Group("/account")
		account.Use(middlewares.EnsureGuest(accountCtrl))
		{
			account.GET("", accountCtrl.GetAccounts)
			account.POST("", accountCtrl.CreateAccount)
			account.DELETE("", accountCtrl.DeleteAccounts)
			account.POST("/login", loginLimiter.RateLimit(), accountCtrl.Login)
			account.GET("/:id", accountCtrl.GetAccount)
			account.PATCH("/:id", accountCtrl.UpdateAccount)
			account.DELETE("/:id", accountCtrl.DeleteAccount)
		}
	}

	// ----------------------------------------------------------------
	//                      NOTIFICATION SERVICE
	// ----------------------------------------------------------------
	if cfg.Enabled(config.ServiceNotification) {
		typeCtrl := controllers.NewNotificationTypeController(db)
		sentCtrl := controllers.NewSentNotificationController(db)

		types := r.Group("/notification/type")
		{
			types.GET("", typeCtrl.GetNotificationTypes)
			types.POST("", typeCtrl.PutNotificationType)
			types.PATCH("", typeCtrl.UpdateNotificationType)
			types.DELETE("", typeCtrl.DeleteNotificationTypes)
		}

		for _, path := range []string{"/notification", "/notification/"} {
			r.POST(path, sentCtrl.RecordSentNotification)
			r.GET(path, sentCtrl.GetSentNotifications)
			r.DELETE(path, sentCtrl.DeleteSentNotifications)
			r.PUT(path, sentCtrl.MethodNotAllowed)
			r.PATCH(path, sentCtrl.MethodNotAllowed)
		}
	}

	// ----------------------------------------------------------------
	//                      ORDER SERVICE
	// ----------------------------------------------------------------
	if cfg.Enabled(config.ServiceOrder) {
		orderCtrl := controllers.NewOrderController(db, kicker, publisher)

		order := r.Group("/order")
		{
			order.GET("", orderCtrl.GetOrders)
			order.POST("", orderCtrl.CreateOrder)
			order.DELETE("", orderCtrl.DeleteOrders)
			order.GET("/:order_id", orderCtrl.GetOrder)
			order.PATCH("/:order_id", orderCtrl.UpdateOrder)
			order.DELETE("/:order_id", orderCtrl.DeleteOrder)
		}
	}

	return r
}
