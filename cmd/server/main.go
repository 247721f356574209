package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	transport "github.com/getdatasurge/claude-ttn-emulator-sub000/internal/transport/http"

	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/authz"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/config"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/observability/metrics"
	obsmw "github.com/getdatasurge/claude-ttn-emulator-sub000/internal/observability/middleware"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/simulate"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/store"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/ttn"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/internal/webhook"
	"github.com/getdatasurge/claude-ttn-emulator-sub000/pkg/db"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	metrics.MustRegister("ttn-emulator")

	gormDB, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	st := store.New(gormDB)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	keys, stopJWKS, err := authz.NewJWKSKeyfunc(cfg.JWKSURL)
	if err != nil {
		log.Fatalf("init jwks: %v", err)
	}
	defer stopJWKS()
	authenticator := authz.NewTokenAuthenticator(keys, cfg.Issuer, cfg.Audience, st.Profiles())

	ttnClient := ttn.NewClient(cfg.TTNTimeout)
	simulator := simulate.NewSimulator(simulate.NewGenerator(nil), ttnClient, st)
	processor := webhook.NewProcessor(st)

	handler := transport.NewHandler(cfg, st, processor, simulator, ttnClient)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(httprate.LimitByIP(100, 1*time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(cfg.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "X-Auth-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Logger)
	r.Use(obsmw.WithRequestID)
	r.Use(obsmw.WithMetrics)

	r.Mount("/", transport.NewRouter(handler, authenticator))

	log.Printf("ttn-emulator listening on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}

func corsOrigins(raw string) []string {
	out := []string{}
	for _, o := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
