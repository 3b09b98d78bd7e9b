package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gigroom/greenroom/internal/auth"
	"github.com/gigroom/greenroom/internal/band"
	"github.com/gigroom/greenroom/internal/blob"
	"github.com/gigroom/greenroom/internal/member"
	"github.com/gigroom/greenroom/internal/metrics"
	"github.com/gigroom/greenroom/internal/ratelimit"
	"github.com/gigroom/greenroom/internal/setlist"
	"github.com/gigroom/greenroom/internal/show"
	"github.com/gigroom/greenroom/internal/song"
	"github.com/gigroom/greenroom/internal/user"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Users    *user.Store
	Bands    *band.Store
	Members  *member.Store
	Songs    *song.Store
	Setlists *setlist.Store
	Shows    *show.Store
	Gate     *band.Gate
	Auth     *auth.Service
	Tokens   *auth.TokenIssuer
	Google   *auth.GoogleClient
	Blobs    blob.Store
	Limiter  *ratelimit.Limiter
	Metrics  *metrics.Metrics

	FrontendURL    string
	AllowedOrigins []string
	MaxUploadSize  int64
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	r.Use(metricsMiddleware(deps.Metrics))

	// Handlers.
	authH := newAuthHandler(deps.Auth, deps.Google, deps.Metrics, deps.FrontendURL)
	bands := newBandsHandler(deps.Bands, deps.Gate, deps.Blobs, deps.Metrics, deps.MaxUploadSize)
	members := newMembersHandler(deps.Members, deps.Gate)
	songs := newSongsHandler(deps.Songs, deps.Setlists, deps.Gate)
	setlists := newSetlistsHandler(deps.Setlists, deps.Gate)
	shows := newShowsHandler(deps.Shows, deps.Gate, deps.Blobs, deps.Metrics, deps.MaxUploadSize)
	files := newFilesHandler(deps.Blobs)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Metrics summary.
	r.Get("/metrics", deps.Metrics.Handler())

	// Public (unauthenticated) routes. Credential endpoints sit behind the
	// per-IP limiter.
	r.Route("/api/v1/auth", func(ar chi.Router) {
		limited := ratelimit.Middleware(deps.Limiter, func() {
			deps.Metrics.IncRateLimitRejection("auth")
		})

		ar.With(limited).Post("/signup", authH.Signup)
		ar.With(limited).Post("/login", authH.Login)
		ar.With(limited).Post("/google", authH.GoogleToken)
		ar.Get("/google", authH.GoogleRedirect)
		ar.Get("/google/callback", authH.GoogleCallback)
	})

	// Stored uploads (band logos, show posters).
	r.Get("/api/v1/files/{name}", files.GetFile)

	// Authenticated routes.
	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(auth.Middleware(deps.Tokens, deps.Users))

		ar.Get("/auth/me", authH.Me)

		ar.Post("/bands", bands.CreateBand)
		ar.Get("/bands", bands.ListBands)

		ar.Route("/bands/{bandID}", func(br chi.Router) {
			br.Get("/", bands.GetBand)
			br.Put("/", bands.UpdateBand)
			br.Delete("/", bands.DeleteBand)
			br.Post("/logo", bands.UploadLogo)
			br.Delete("/logo", bands.DeleteLogo)

			br.Post("/members", members.CreateMember)
			br.Get("/members", members.ListMembers)
			br.Get("/members/{memberID}", members.GetMember)
			br.Put("/members/{memberID}", members.UpdateMember)
			br.Delete("/members/{memberID}", members.DeleteMember)

			br.Post("/songs", songs.CreateSong)
			br.Get("/songs", songs.ListSongs)
			br.Get("/songs/{songID}", songs.GetSong)
			br.Put("/songs/{songID}", songs.UpdateSong)
			br.Put("/songs/{songID}/setlists", songs.UpdateSongSetlists)
			br.Delete("/songs/{songID}", songs.DeleteSong)

			br.Post("/setlists", setlists.CreateSetlist)
			br.Get("/setlists", setlists.ListSetlists)
			br.Get("/setlists/{setlistID}", setlists.GetSetlist)
			br.Put("/setlists/{setlistID}", setlists.UpdateSetlist)
			br.Delete("/setlists/{setlistID}", setlists.DeleteSetlist)
			br.Post("/setlists/{setlistID}/songs/{songID}", setlists.AddSong)
			br.Delete("/setlists/{setlistID}/songs/{songID}", setlists.RemoveSong)
			br.Put("/setlists/{setlistID}/order", setlists.ReorderSongs)

			br.Post("/shows", shows.CreateShow)
			br.Get("/shows", shows.ListShows)
			br.Get("/shows/{showID}", shows.GetShow)
			br.Put("/shows/{showID}", shows.UpdateShow)
			br.Delete("/shows/{showID}", shows.DeleteShow)
			br.Post("/shows/{showID}/poster", shows.UploadPoster)
			br.Delete("/shows/{showID}/poster", shows.DeletePoster)

			br.Post("/shows/{showID}/payments", shows.CreatePayment)
			br.Get("/shows/{showID}/payments", shows.ListPayments)
			br.Put("/shows/{showID}/payments/{paymentID}", shows.UpdatePayment)
			br.Delete("/shows/{showID}/payments/{paymentID}", shows.DeletePayment)
		})
	})

	return r
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
		)
	})
}
