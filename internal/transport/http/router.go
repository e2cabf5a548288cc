package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taratrabaho/jobboard-api/internal/application/apply"
	"github.com/taratrabaho/jobboard-api/internal/application/auth"
	"github.com/taratrabaho/jobboard-api/internal/application/chat"
	"github.com/taratrabaho/jobboard-api/internal/application/job"
	"github.com/taratrabaho/jobboard-api/internal/application/notification"
	"github.com/taratrabaho/jobboard-api/internal/application/recommend"
	"github.com/taratrabaho/jobboard-api/internal/application/resume"
	"github.com/taratrabaho/jobboard-api/internal/application/session"
	"github.com/taratrabaho/jobboard-api/internal/application/stats"
	"github.com/taratrabaho/jobboard-api/internal/application/user"
	"github.com/taratrabaho/jobboard-api/internal/config"
	"github.com/taratrabaho/jobboard-api/internal/credstore"
	"github.com/taratrabaho/jobboard-api/internal/domain"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/dynamo"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/gemini"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/google"
	jwtinfra "github.com/taratrabaho/jobboard-api/internal/infrastructure/jwt"
	s3infra "github.com/taratrabaho/jobboard-api/internal/infrastructure/s3"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/smtp"
	"github.com/taratrabaho/jobboard-api/internal/infrastructure/sns"
	"github.com/taratrabaho/jobboard-api/internal/pkg/ratelimit"
	"github.com/taratrabaho/jobboard-api/internal/transport/http/handler"
	appmiddleware "github.com/taratrabaho/jobboard-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router. Publisher,
// Tokens, Google, AI and OTPLimiter may be nil.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	JobRepo          *dynamo.JobRepo
	ResumeRepo       *dynamo.ResumeRepo
	ApplicationRepo  *dynamo.ApplicationRepo
	ChatRepo         *dynamo.ChatRepo
	NotificationRepo *dynamo.NotificationRepo

	OTPs    credstore.Store[domain.OTPRecord]
	Pending credstore.Store[domain.PendingRegistration]
	Resets  credstore.Store[domain.ResetToken]

	Objects   *s3infra.Store
	Mailer    smtp.Mailer
	Publisher sns.Publisher
	Tokens    *jwtinfra.Provider
	Google    *google.Verifier
	AI        gemini.Generator

	OTPLimiter ratelimit.Limiter
	IPLimiter  ratelimit.Limiter
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Without a token provider login and authenticated routes answer 503.
	// verify-otp stays live and returns the user id without a token.
	authMw := appmiddleware.Unavailable
	tokensMw := appmiddleware.Unavailable
	if deps.Tokens != nil {
		authMw = appmiddleware.Auth(deps.Tokens)
		tokensMw = func(next http.Handler) http.Handler { return next }
	}
	sensitive := func(next http.Handler) http.Handler { return next }
	if deps.IPLimiter != nil {
		sensitive = appmiddleware.RateLimit(deps.IPLimiter)
	}

	authDeps := auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		OTPs:        deps.OTPs,
		Pending:     deps.Pending,
		Resets:      deps.Resets,
		Mailer:      deps.Mailer,
		Limiter:     deps.OTPLimiter,
		Config:      cfg.Credentials,
		FrontendURL: cfg.FrontendURL,
	}
	sessionDeps := session.ServiceDeps{UserRepo: deps.UserRepo}
	if deps.Tokens != nil {
		authDeps.Signer = deps.Tokens
		sessionDeps.Tokens = deps.Tokens
	}
	if deps.Google != nil {
		sessionDeps.Google = deps.Google
	}

	notifSvc := notification.NewService(notification.ServiceDeps{NotificationRepo: deps.NotificationRepo})
	authSvc := auth.NewService(authDeps)
	sessionSvc := session.NewService(sessionDeps)
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo})
	jobSvc := job.NewService(job.ServiceDeps{JobRepo: deps.JobRepo})
	resumeSvc := resume.NewService(resume.ServiceDeps{ResumeRepo: deps.ResumeRepo, Objects: deps.Objects})
	applySvc := apply.NewService(apply.ServiceDeps{
		JobRepo:         deps.JobRepo,
		ApplicationRepo: deps.ApplicationRepo,
		ResumeRepo:      deps.ResumeRepo,
		Objects:         deps.Objects,
		Mailer:          deps.Mailer,
		Publisher:       deps.Publisher,
		Notifier:        notifSvc,
	})
	chatSvc := chat.NewService(chat.ServiceDeps{ChatRepo: deps.ChatRepo})
	recommendSvc := recommend.NewService(recommend.ServiceDeps{JobRepo: deps.JobRepo, ChatRepo: deps.ChatRepo, AI: deps.AI})
	statsSvc := stats.NewService(stats.ServiceDeps{
		UserRepo:        deps.UserRepo,
		JobRepo:         deps.JobRepo,
		ApplicationRepo: deps.ApplicationRepo,
		ResumeRepo:      deps.ResumeRepo,
		ChatRepo:        deps.ChatRepo,
	})

	healthH := handler.NewHealthHandler()
	credH := handler.NewCredentialHandler(authSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	jobH := handler.NewJobHandler(jobSvc)
	resumeH := handler.NewResumeHandler(resumeSvc)
	appH := handler.NewApplicationHandler(applySvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	chatH := handler.NewChatHandler(chatSvc)
	recH := handler.NewRecommendHandler(recommendSvc)
	statsH := handler.NewStatsHandler(statsSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Check)
		r.Get("/jobs", jobH.List)
		r.Get("/jobs/{id}", jobH.Get)
		r.Get("/verify-reset-token/{token}", credH.VerifyResetToken)

		r.Group(func(r chi.Router) {
			r.Use(sensitive)
			r.Post("/signup", credH.Signup)
			r.Post("/send-otp", credH.SendOTP)
			r.Post("/forget-password", credH.ForgetPassword)
			r.Post("/reset-password", credH.ResetPassword)
			r.Post("/verify-otp", credH.VerifyOTP)
			r.With(tokensMw).Post("/login", sessionH.Login)
			r.With(tokensMw).Post("/auth/google", sessionH.Google)
		})
		r.With(tokensMw).Post("/verifyToken", sessionH.VerifyToken)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/me", sessionH.Me)
			r.Get("/profile/{email}", userH.GetProfile)
			r.Put("/profile/{email}", userH.UpdateProfile)

			r.Post("/resume/save", resumeH.Save)
			r.Get("/resume/user/{userId}", resumeH.ListByUser)
			r.Get("/resume/download/{id}", resumeH.Download)
			r.Delete("/resume/{id}", resumeH.Delete)

			r.Post("/jobs/apply", appH.Apply)
			r.Post("/jobs/recommend", recH.Recommend)
			r.Get("/applications/me", appH.ListMine)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			r.Post("/chat/save", chatH.Save)
			r.Put("/chat/update/{id}", chatH.Update)
			r.Get("/chat/history/{userId}", chatH.History)
			r.Delete("/chat/{id}", chatH.Delete)

			r.Post("/gemini", recH.Generate)
			r.Get("/stats/{userId}", statsH.ForUser)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Put("/users/{id}", userH.UpdateStatus)

				r.Post("/jobs", jobH.Create)
				r.Put("/jobs/{id}", jobH.Update)
				r.Delete("/jobs/{id}", jobH.Delete)

				r.Get("/applications", appH.ListAll)
				r.Put("/applications/{id}/status", appH.UpdateStatus)

				r.Get("/admin/stats", statsH.Dashboard)
			})
		})
	})

	return r
}
