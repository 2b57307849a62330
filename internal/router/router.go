package router

import (
	"database/sql"
	"net/http"
	"os"

	_ "dialog-backend/docs"
	"dialog-backend/internal/adapters/auth/jwtauth"
	"dialog-backend/internal/adapters/notify/lognotifier"
	mem "dialog-backend/internal/adapters/storage/memory"
	pg "dialog-backend/internal/adapters/storage/postgres"
	"dialog-backend/internal/domain/alerts"
	"dialog-backend/internal/domain/measurements"
	"dialog-backend/internal/domain/users"
	"dialog-backend/internal/middleware"
	"dialog-backend/internal/platform/logger"
	"dialog-backend/internal/ports/auth"
	"dialog-backend/internal/ports/notify"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // nil => modo dev (X-Debug-User-ID), salvo JWT_SECRET
	TokenIssuer  auth.TokenIssuer  // nil => HS256 local con JWT_SECRET

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: entrega de correo. Si no viene, se loguea y no se entrega.
	Notifier notify.Notifier

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Tokens: con JWT_SECRET el verificador corre en serio; sin él solo
	// queda el header de dev.
	secret := os.Getenv("JWT_SECRET")
	jwtSvc := jwtauth.New(func() string {
		if secret != "" {
			return secret
		}
		return "dev-secret-do-not-deploy"
	}())

	issuer := opts.TokenIssuer
	if issuer == nil {
		issuer = jwtSvc
	}
	verifier := opts.AuthVerifier
	if verifier == nil && secret != "" {
		verifier = jwtSvc
	}

	r.Use(middleware.AuthContext(verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	var (
		userRepo        users.Repository
		measurementRepo measurements.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, falling back to memory", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}

	if db != nil {
		userRepo = pg.NewUsersRepo(db)
		measurementRepo = pg.NewMeasurementsRepo(db)
	} else {
		userRepo = mem.NewUserRepo()
		measurementRepo = mem.NewMeasurementRepo()
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = lognotifier.New(log)
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo)
	measurementsSvc := measurements.NewService(measurementRepo)
	alertsSvc := alerts.NewService(usersSvc, notifier)

	// Rutas por módulo
	users.RegisterRoutes(r, usersSvc, issuer)
	measurements.RegisterRoutes(r, measurementsSvc)
	alerts.RegisterRoutes(r, alertsSvc, measurementsSvc)

	return r
}
