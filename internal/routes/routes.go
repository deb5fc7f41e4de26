package routes

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/leadvault-backend/internal/handlers"
	"github.com/AnshRaj112/leadvault-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Production     bool
	Logger         *zap.Logger
}

// NewRouter wires every endpoint. Mutating routes require a session; reads
// accept one optionally and fall back to an anonymous view.
func NewRouter(h *handlers.Handler, auth middleware.Authenticator, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.TrackUser)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	if opts.Production {
		r.Use(middleware.StrictTransport)
	}

	r.Get("/health", h.Health)

	requireUser := middleware.RequireUser(auth)
	optionalUser := middleware.OptionalUser(auth)

	r.Route("/api", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chimw.Timeout(opts.RequestTimeout))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Signup)
			r.Post("/signin", h.Signin)
			r.With(requireUser).Post("/signout", h.Signout)
			r.With(requireUser).Get("/me", h.Me)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/", h.GetLedger)
			r.Get("/unlocked", h.UnlockedContacts)
			r.Get("/activity", h.ActivitySummary)
			r.Patch("/activity", h.AppendActivity)
			r.Get("/history", h.History)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.With(optionalUser).Get("/", h.ListContacts)
			r.With(optionalUser).Get("/{id}", h.GetContact)
			r.With(requireUser).Post("/", h.CreateContact)
			r.With(requireUser).Post("/bulk", h.BulkCreateContacts)
			r.With(requireUser).Post("/{id}/unlock", h.UnlockContact)
		})

		r.With(requireUser).Post("/upload", h.UploadAvatar)
	})

	r.With(requireUser).Get("/ws/ledger", h.LedgerFeed)

	return r
}
