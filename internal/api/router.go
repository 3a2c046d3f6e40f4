package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/library-backend/internal/api/handlers"
	"github.com/baharkarakas/library-backend/internal/auth"
	"github.com/baharkarakas/library-backend/internal/config"
	"github.com/baharkarakas/library-backend/internal/metrics"
	"github.com/baharkarakas/library-backend/internal/middleware"
	"github.com/baharkarakas/library-backend/internal/models"
	"github.com/baharkarakas/library-backend/internal/services"
)

type RouterDeps struct {
	Cfg           config.Config
	Log           *slog.Logger
	TM            *auth.TokenManager
	AuthSvc       *services.AuthService
	UserSvc       *services.UserService
	BookSvc       *services.BookService
	ReviewSvc     *services.ReviewService
	AssignmentSvc *services.AssignmentService
}

func NewRouter(d RouterDeps) http.Handler {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(log), middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authMW := middleware.NewAuthMiddleware(d.TM, d.Cfg.Env)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	ah := handlers.NewAuthHandler(d.AuthSvc, d.UserSvc)
	uh := &handlers.UserHandler{Users: d.UserSvc}
	bh := &handlers.BookHandler{Books: d.BookSvc}
	rh := &handlers.ReviewHandler{Reviews: d.ReviewSvc}
	asg := &handlers.AssignmentHandler{Assignments: d.AssignmentSvc, Loc: d.Cfg.Location}

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/admin/signup", ah.AdminSignup)
		r.Post("/auth/admin/login", ah.AdminLogin)
		r.Post("/auth/login", ah.Login)
		r.Post("/auth/register", ah.Register)
		r.Post("/auth/refresh", ah.Refresh)

		// ---------- catalog (public read) ----------
		r.Get("/books", bh.List)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth)

			r.Get("/users/me", uh.Me)

			// ---------- books ----------
			r.Get("/books/{id}", bh.Get)
			r.With(adminOnly).Post("/books", bh.Create)
			r.With(adminOnly).Put("/books/{id}", bh.Update)
			r.With(adminOnly).Delete("/books/{id}", bh.Delete)

			// ---------- reviews ----------
			r.Get("/books/{bookId}/reviews", rh.List)
			r.Post("/books/{bookId}/reviews", rh.Add)
			r.Delete("/reviews/{reviewId}", rh.Delete)
			r.Post("/reviews/{reviewId}/like", rh.Vote(models.VoteLike))
			r.Post("/reviews/{reviewId}/dislike", rh.Vote(models.VoteDislike))
			r.Post("/reviews/{reviewId}/unvote", rh.Vote(models.VoteNone))

			// ---------- admin: users ----------
			r.Route("/admin/users", func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", uh.Create)
				r.Get("/", uh.List)
				r.Get("/{id}", uh.Get)
				r.Put("/{id}", uh.Update)
				r.Delete("/{id}", uh.Delete)
				r.Post("/{id}/approve", uh.Approve)
			})

			// ---------- assignments ----------
			r.Route("/assignment", func(r chi.Router) {
				r.With(adminOnly).Post("/assign", asg.Assign)
				r.With(adminOnly).Get("/all", asg.ListAll)
				r.With(adminOnly).Post("/return/{assignmentId}", asg.Return)
				r.With(adminOnly).Post("/send-reminder/{assignmentId}", asg.SendReminder)
				r.With(adminOnly).Post("/send-reminders", asg.SendReminders)
				r.With(middleware.SelfOrAdmin("userId")).Get("/user/{userId}", asg.ListByUser)
				r.Get("/{id}", asg.Get)
			})
		})
	})

	return r
}
