package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggoFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/gasflowhq/gasflow-api/docs"
	"github.com/gasflowhq/gasflow-api/internal/auth"
	"github.com/gasflowhq/gasflow-api/internal/catalog"
	"github.com/gasflowhq/gasflow-api/internal/config"
	"github.com/gasflowhq/gasflow-api/internal/db"
	"github.com/gasflowhq/gasflow-api/internal/httpx"
	"github.com/gasflowhq/gasflow-api/internal/order"
	"github.com/gasflowhq/gasflow-api/internal/user"
)

// @title GasFlow API
// @version 1.0
// @description REST backend for a gas cylinder delivery service.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[db] connect: %v", err)
	}
	defer pool.Close()

	if !cfg.IsProduction() {
		if err := db.Sync(ctx, pool); err != nil {
			log.Fatalf("[db] sync: %v", err)
		}
		log.Printf("[db] schema synchronized")
	}

	baseFee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		log.Fatalf("[config] invalid DELIVERY_FEE %q: %v", cfg.DeliveryFee, err)
	}

	var revoked auth.TokenStore
	if cfg.RedisAddr != "" {
		revoked = auth.NewRedisStore(cfg.RedisAddr)
		log.Printf("[auth] token revocation backed by redis at %s", cfg.RedisAddr)
	} else {
		revoked = auth.NewMemoryStore()
		log.Printf("[auth] token revocation backed by in-process store")
	}

	verbose := !cfg.IsProduction()

	users := user.NewPGRepo(pool)
	suppliers := catalog.NewPGSupplierRepo(pool)
	cylinders := catalog.NewPGCylinderRepo(pool)
	orders := order.NewPGRepo(pool)

	authH := auth.NewHandlers(users, auth.NewTokenIssuer(cfg.JWTSecret), revoked, verbose)
	userH := user.NewHandlers(users, verbose)
	supplierH := catalog.NewSupplierHandlers(suppliers, verbose)
	cylinderH := catalog.NewCylinderHandlers(cylinders, suppliers, verbose)
	orderH := order.NewHandlers(orders, users, cylinders, baseFee, verbose)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Gas Delivery API is running",
		})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggoFiles.Handler))

	api := r.Group("/api")
	{
		a := api.Group("/auth")
		a.POST("/login", authH.Login)
		a.POST("/register", authH.Register)
		a.GET("/verify", authH.VerifyToken)
		a.POST("/logout", authH.Logout)
		a.DELETE("/logout", authH.Logout)
		a.POST("/refresh", authH.Refresh)
		a.POST("/change-password", authH.ChangePassword)
		a.POST("/forgot-password", authH.ForgotPassword)
		a.POST("/reset-password", authH.ResetPassword)

		u := api.Group("/users")
		u.GET("", userH.List)
		u.GET("/role/:role", userH.ListByRole)
		u.GET("/:id", userH.Get)
		u.POST("", userH.Create)
		u.PUT("/:id", userH.Update)
		u.PATCH("/:id/password", userH.UpdatePassword)
		u.DELETE("/:id", userH.Delete)

		s := api.Group("/suppliers")
		s.GET("", supplierH.List)
		s.POST("", supplierH.Create)

		g := api.Group("/gas-cylinders")
		g.GET("", cylinderH.List)
		g.GET("/:id", cylinderH.Get)
		g.POST("", cylinderH.Create)
		g.PUT("/:id", cylinderH.Update)
		g.DELETE("/:id", cylinderH.Delete)

		o := api.Group("/orders")
		o.POST("", orderH.Create)
		o.GET("", orderH.List)
		o.GET("/:id", orderH.Get)
		o.PUT("/:id/status", orderH.UpdateStatus)
		o.PUT("/:id/payment", orderH.UpdatePayment)
		o.PUT("/:id/cancel", orderH.Cancel)
		o.DELETE("/:id", orderH.Delete)
	}

	log.Printf("[api] listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("[api] server: %v", err)
	}
}
