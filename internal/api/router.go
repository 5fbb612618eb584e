package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/sus-scheduling/internal/booking"
	"github.com/hackgods/sus-scheduling/internal/identity"
	"github.com/hackgods/sus-scheduling/internal/store"
)

type RouterConfig struct {
	Identity *identity.Manager
	Engine   *booking.Engine
	// Checks are pinged by /health/ready, keyed by backend name.
	Checks  map[string]store.Pinger
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(DeviceIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	ids, eng := cfg.Identity, cfg.Engine

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", registerPatientHandler(ids))
		r.Get("/", listPatientsHandler(ids))
		r.Delete("/", clearPatientsHandler(ids))
		r.Post("/login", loginHandler(ids, identity.KindPatient))
		r.Post("/logout", logoutHandler(ids, identity.KindPatient))
		r.Get("/me", meHandler(ids, identity.KindPatient))
		r.Get("/credentials", credentialsHandler(ids, identity.KindPatient))
	})

	r.Route("/doctors", func(r chi.Router) {
		r.Post("/", registerDoctorHandler(ids))
		r.Post("/login", loginHandler(ids, identity.KindDoctor))
		r.Post("/logout", logoutHandler(ids, identity.KindDoctor))
		r.Get("/me", meHandler(ids, identity.KindDoctor))
		r.Get("/credentials", credentialsHandler(ids, identity.KindDoctor))
	})

	// Patient side
	r.Get("/catalog", catalogHandler())
	r.Get("/catalog/{slug}", catalogSpecialtyHandler())
	r.Get("/slots", openSlotsHandler(eng))
	r.Post("/slots/{id}/claim", claimSlotHandler(ids, eng))
	r.Post("/bookings", bookLegacyHandler(ids, eng))
	r.Get("/me/appointments", myAppointmentsHandler(ids, eng))
	r.Delete("/me/appointments/{source}/{id}", cancelMyAppointmentHandler(ids, eng))

	// Doctor side
	r.Route("/doctor", func(r chi.Router) {
		r.Get("/slots", doctorSlotsHandler(ids, eng))
		r.Post("/slots", publishSlotHandler(ids, eng))
		r.Get("/time-options", timeOptionsHandler(ids, eng))
		r.Patch("/slots/{id}/status", setSlotStatusHandler(ids, eng))
		r.Post("/slots/{id}/release", releaseSlotHandler(ids, eng))
		r.Delete("/slots/{id}", deleteSlotHandler(ids, eng))
	})

	return r
}
