package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gamecafe/internal/database"
	"gamecafe/internal/modules/billing"
	"gamecafe/internal/modules/device"
	"gamecafe/internal/modules/payment"
	"gamecafe/internal/modules/receipt"
	"gamecafe/internal/modules/session"
	jwtsvc "gamecafe/internal/pkg/jwt"
	"gamecafe/internal/pkg/logging"
	"gamecafe/internal/pkg/pricing"
	"gamecafe/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger, err := logging.New()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	deviceRepo := repository.NewDeviceRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	billRepo := repository.NewBillRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	j := jwtsvc.New(secret, 24*time.Hour)
	rates := ratesFromEnv()

	billingService := billing.NewService(billRepo, orderRepo, sessionRepo, paymentRepo, rates, dueAfterFromEnv(), nil, logger)
	billingHandler := billing.NewHandler(billingService)

	sessionService := session.NewService(sessionRepo, deviceRepo, billingService, rates, logger)
	sessionHandler := session.NewHandler(sessionService)

	paymentService := payment.NewService(paymentRepo, orderRepo, billingService, billingService.Locks(), logger)
	paymentHandler := payment.NewHandler(paymentService)

	receiptService := receipt.NewService(billRepo, orderRepo, sessionRepo, paymentRepo, rates, logger)
	receiptHandler := receipt.NewHandler(receiptService)

	deviceService := device.NewService(deviceRepo, logger)
	deviceHandler := device.NewHandler(deviceService)

	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// the receipt view stays public: customers read it from the table QR code
	public := r.Group("/public")
	{
		receiptHandler.RegisterRoutes(public)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(j))
	{
		deviceHandler.RegisterRoutes(v1)
		sessionHandler.RegisterRoutes(v1)
		billingHandler.RegisterRoutes(v1)
		paymentHandler.RegisterRoutes(v1)
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger.Info("starting api", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}

func ratesFromEnv() pricing.Config {
	cfg := pricing.DefaultConfig()
	if v, err := strconv.ParseFloat(os.Getenv("RATE_COMPUTER_HOURLY"), 64); err == nil && v > 0 {
		cfg.ComputerHourly = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("RATE_PS_4PLUS_HOURLY"), 64); err == nil && v > 0 {
		rates := pricing.RateTable{}
		for k, r := range cfg.PlayStationRates {
			rates[k] = r
		}
		rates[4] = v
		cfg.PlayStationRates = rates
	}
	return cfg
}

func dueAfterFromEnv() time.Duration {
	days, err := strconv.Atoi(os.Getenv("BILL_DUE_DAYS"))
	if err != nil || days <= 0 {
		return 0
	}
	return time.Duration(days) * 24 * time.Hour
}

func authMiddleware(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing Authorization header",
				},
			})
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid Authorization header",
				},
			})
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid token",
				},
			})
			return
		}

		c.Set("staff_id", claims.StaffID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
