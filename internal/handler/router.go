package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes bundles the handlers mounted by NewRouter.
type Routes struct {
	Store   Pinger
	Roster  *RosterHandler
	Checkin *CheckinHandler
	Admin   *AdminHandler
	Notify  *NotifyHandler
	// WebDir, when set, is served at the root for the browser client.
	WebDir string
}

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)
	r.Use(CORS)

	r.Get("/health", HealthCheck(rt.Store))

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", rt.Roster.Upload)
		r.Post("/checkin", rt.Checkin.CheckIn)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/participants", rt.Admin.ListParticipants)
			r.Delete("/participants", rt.Admin.ClearParticipants)
			r.Delete("/participants/{id}", rt.Admin.DeleteParticipant)
			r.Get("/stats", rt.Admin.Stats)
			r.Get("/qrcodes", rt.Admin.QRCodes)
			r.Get("/qrcodes/{code}", rt.Admin.QRImage)
			r.Get("/export", rt.Admin.Export)
		})

		r.Post("/email/send", rt.Notify.SendEmails)
		r.Post("/email/test", rt.Notify.TestSMTP)
		r.Post("/teams/send", rt.Notify.SendTeams)
	})

	if rt.WebDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(rt.WebDir)))
	}
	return r
}
