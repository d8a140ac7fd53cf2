package router

import (
	"database/sql"
	"net/http"
	"time"

	"vet-discharge-portal/internal/adapters/resilience"
	mem "vet-discharge-portal/internal/adapters/storage/memory"
	pg "vet-discharge-portal/internal/adapters/storage/postgres"
	"vet-discharge-portal/internal/domain/adherence"
	"vet-discharge-portal/internal/domain/discharges"
	"vet-discharge-portal/internal/domain/doses"
	"vet-discharge-portal/internal/domain/pets"
	"vet-discharge-portal/internal/domain/symptoms"
	"vet-discharge-portal/internal/middleware"
	"vet-discharge-portal/internal/platform/logger"
	"vet-discharge-portal/internal/platform/metrics"
	"vet-discharge-portal/internal/ports/auth"

	_ "vet-discharge-portal/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger   logger.Logger    // default: no-op
	Metrics  *metrics.Metrics // default: registry propio
	Location *time.Location   // zona de la clínica; default UTC

	// Breaker sobre las lecturas de dosis de los agregadores.
	Breaker resilience.Config

	ServiceName string

	// Services ya construidos (p.ej. compartidos con el consumer). Si es nil se arman acá.
	Services *Services
}

// Services agrupa los services de dominio ya cableados.
// Lo usan el router y el comando consume-doses.
type Services struct {
	Pets       *pets.Service
	Discharges *discharges.Service
	Doses      *doses.Service
	Adherence  *adherence.Service
	Symptoms   *symptoms.Service
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Breaker.Name == "" {
		o.Breaker = resilience.DefaultConfig("dose-store")
	}
	if o.ServiceName == "" {
		o.ServiceName = "vet-discharge-portal"
	}
}

func NewServices(opts Options) Services {
	opts.defaults()

	var (
		petRepo       pets.Repository
		dischargeRepo discharges.Repository
		doseRepo      doses.Repository
	)

	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		dischargeRepo = pg.NewDischargesRepo(opts.DB)
		doseRepo = pg.NewDosesRepo(opts.DB)
	} else {
		petRepo = mem.NewPetRepo()
		dischargeRepo = mem.NewDischargeRepo()
		doseRepo = mem.NewDoseRepo()
	}

	petsSvc := pets.NewService(petRepo)
	dischargesSvc := discharges.NewService(dischargeRepo, opts.Location)
	dosesSvc := doses.NewService(doseRepo)

	// Los agregadores leen a través del breaker; el registro de dosis no.
	src := resilience.NewDoseSource(dosesSvc, opts.Breaker, logger.AsZap(opts.Logger), opts.Metrics)

	return Services{
		Pets:       petsSvc,
		Discharges: dischargesSvc,
		Doses:      dosesSvc,
		Adherence:  adherence.NewService(src, dischargesSvc, opts.Location, opts.Logger.With(map[string]any{"component": "adherence"}), opts.Metrics),
		Symptoms:   symptoms.NewService(src, dischargesSvc, opts.Location, opts.Logger.With(map[string]any{"component": "symptoms"}), opts.Metrics),
	}
}

func NewRouter(opts Options) http.Handler {
	opts.defaults()
	svcs := opts.Services
	if svcs == nil {
		built := NewServices(opts)
		svcs = &built
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(opts.Logger))
	r.Use(middleware.Tracing(opts.ServiceName))
	r.Use(middleware.Metrics(opts.Metrics))

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.RequestLog(opts.Logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Rutas por módulo
	pets.RegisterRoutes(r, svcs.Pets)
	discharges.RegisterRoutes(r, svcs.Discharges, svcs.Pets)
	doses.RegisterRoutes(r, svcs.Doses, svcs.Discharges, opts.Metrics)
	adherence.RegisterRoutes(r, svcs.Adherence, svcs.Discharges, svcs.Pets)
	symptoms.RegisterRoutes(r, svcs.Symptoms, svcs.Discharges, svcs.Pets)

	return r
}
