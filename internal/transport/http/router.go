package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taskflow-api/internal/application/attachment"
	"github.com/taskflow-api/internal/application/auth"
	"github.com/taskflow-api/internal/application/notification"
	"github.com/taskflow-api/internal/application/project"
	"github.com/taskflow-api/internal/application/task"
	"github.com/taskflow-api/internal/application/user"
	"github.com/taskflow-api/internal/config"
	"github.com/taskflow-api/internal/domain"
	"github.com/taskflow-api/internal/transport/http/handler"
	appmiddleware "github.com/taskflow-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	notifSvc := notification.NewService(notification.ServiceDeps{
		NotificationRepo: deps.NotificationRepo,
		Mailer:           deps.Mailer,
		Publisher:        deps.Publisher,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Codes:          deps.Codes,
		UserRepo:       deps.UserRepo,
		Mailer:         deps.Mailer,
		Tokens:         deps.JWTProvider,
		DirectorEmails: cfg.DirectorEmails,
	})
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo})
	projectSvc := project.NewService(project.ServiceDeps{ProjectRepo: deps.ProjectRepo, TaskRepo: deps.TaskRepo})
	taskSvc := task.NewService(task.ServiceDeps{
		TaskRepo:    deps.TaskRepo,
		ProjectRepo: deps.ProjectRepo,
		UserRepo:    deps.UserRepo,
		Notifier:    notifSvc,
	})
	attachmentSvc := attachment.NewService(attachment.ServiceDeps{
		Objects:        deps.S3Store,
		AttachmentRepo: deps.AttachmentRepo,
		TaskRepo:       deps.TaskRepo,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, handler.CookieOptions{
		Secure:     cfg.CookieSecure,
		SessionTTL: deps.JWTProvider.Expiry(),
		PendingTTL: deps.JWTProvider.PendingExpiry(),
	})
	userH := handler.NewUserHandler(userSvc)
	projectH := handler.NewProjectHandler(projectSvc)
	taskH := handler.NewTaskHandler(taskSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	attachmentH := handler.NewAttachmentHandler(attachmentSvc)

	director := appmiddleware.RequireRole(domain.RoleDirector)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/register/resend", authH.ResendCode)
			r.Post("/verify", authH.Verify)
			r.Post("/login", authH.Login)
			r.Post("/logout", authH.Logout)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/users/me", userH.Me)
			r.Get("/projects", projectH.List)
			r.Get("/projects/{id}", projectH.Get)

			r.Get("/tasks/mine", taskH.ListMine)
			r.Get("/tasks/{id}", taskH.Get)
			r.Post("/tasks/{id}/accept", taskH.Accept)
			r.Post("/tasks/{id}/complete", taskH.Complete)
			r.Post("/tasks/{id}/attachments", attachmentH.Upload)
			r.Get("/tasks/{id}/attachments", attachmentH.List)
			r.Get("/attachments/{id}", attachmentH.Download)
			r.Delete("/attachments/{id}", attachmentH.Delete)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			// Director-only routes
			r.Group(func(r chi.Router) {
				r.Use(director)

				r.Get("/users", userH.List)
				r.Post("/projects", projectH.Create)
				r.Put("/projects/{id}", projectH.Update)
				r.Delete("/projects/{id}", projectH.Delete)
				r.Get("/tasks", taskH.List)
				r.Post("/tasks", taskH.Create)
				r.Put("/tasks/{id}", taskH.Update)
				r.Delete("/tasks/{id}", taskH.Delete)
			})
		})
	})

	return r
}
