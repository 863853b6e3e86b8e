package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/fulfillment"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	// Repos
	userRepo := &shop.UserRepo{DB: db}
	productRepo := &shop.ProductRepo{DB: db}
	cartRepo := &shop.CartRepo{DB: db}
	checkoutRepo := &shop.CheckoutRepo{DB: db}
	orderRepo := &shop.OrderRepo{DB: db}

	// Services
	authSvc := &auth.Service{
		Users:      userRepo,
		Redis:      rdb,
		Secret:     []byte(cfg.JWTSecret),
		SessionTTL: time.Duration(cfg.SessionTTLHours) * time.Hour,
	}
	cartSvc := &cart.Service{Repo: cartRepo}
	checkoutSvc := &checkout.Service{
		Carts:       cartRepo,
		Orders:      checkoutRepo,
		Credentials: authSvc,
		Producer:    pCreated,
		Redis:       rdb,
		ServiceName: cfg.ServiceName,
	}
	fulfillmentSvc := &fulfillment.Service{
		Orders:      orderRepo,
		Producer:    pStatus,
		Redis:       rdb,
		ServiceName: cfg.ServiceName,
	}

	// Router
	router := httpx.NewRouter()

	authH := &httpx.AuthHandler{Auth: authSvc}
	catalogH := &httpx.CatalogHandler{Products: productRepo}
	cartH := &httpx.CartHandler{Cart: cartSvc}
	checkoutH := &httpx.CheckoutHandler{Checkout: checkoutSvc}
	ordersH := &httpx.OrdersHandler{Orders: orderRepo, Fulfillment: fulfillmentSvc, Redis: rdb}
	adminH := &httpx.AdminHandler{Fulfillment: fulfillmentSvc}

	authH.Register(router)
	catalogH.Register(router)
	router.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)
		cartH.Register(r)
		checkoutH.Register(r)
		ordersH.Register(r)
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(authSvc.Middleware, auth.RequireStaff)
		adminH.Register(r)
		catalogH.RegisterAdmin(r)
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close()
	pStatus.Close()
	cancel()
	pCreated.WaitClosed()
	pStatus.WaitClosed()
}
