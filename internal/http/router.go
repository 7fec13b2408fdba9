package api

import (
	"log"
	stdhttp "net/http"

	intconfig "salonbackend/internal/config"
	h "salonbackend/internal/http/handlers"
	"salonbackend/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, payments h.PaymentHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":      "route not found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		payment := api.Group("/payment")
		payment.POST("/create", middleware.AuthOptional(env.JWTSecret), payments.CreatePaymentIntent)
		payment.POST("/webhook", payments.Webhook)
		payment.GET("/status/:intentId", payments.PaymentStatus)
		payment.POST("/refund/:intentId",
			middleware.AuthOptional(env.JWTSecret), middleware.RequireRoles("admin", "owner"),
			payments.RefundPayment)
	}

	h.SetRouter(r)
	return r
}
