package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/ratelimit"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/service"
)

type API struct {
	Service         *service.Service
	Origins         []string
	LoginLimiter    *ratelimit.Limiter
	RegisterLimiter *ratelimit.Limiter
	// Storage and LLMBackend are reported by the health endpoints.
	Storage    string
	LLMBackend string
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestContext)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(loggingMiddleware)
	r.Use(a.corsMiddleware)

	r.Get("/health", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit(a.RegisterLimiter, "Too many registration attempts, please try again later")).
				Post("/register", a.handleRegister)
			r.With(rateLimit(a.LoginLimiter, "Too many login attempts, please try again later")).
				Post("/login", a.handleLogin)
			r.Post("/refresh-token", a.handleRefreshToken)
			r.With(a.optionalAuthMiddleware).Get("/session", a.handleSession)

			r.Group(func(r chi.Router) {
				r.Use(a.authMiddleware)
				r.Get("/profile", a.handleGetProfile)
				r.Put("/profile", a.handleUpdateProfile)
				r.Put("/change-password", a.handleChangePassword)
				r.Post("/logout", a.handleLogout)
				r.Delete("/deactivate", a.handleDeactivate)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(a.authMiddleware)

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", a.handleCreateTask)
				r.Get("/", a.handleListTasks)
				r.Get("/overdue", a.handleOverdueTasks)
				r.Get("/stats", a.handleTaskStats)
				r.Get("/{taskId}", a.handleGetTask)
				r.Put("/{taskId}", a.handleUpdateTask)
				r.Delete("/{taskId}", a.handleDeleteTask)
				r.Patch("/{taskId}/complete", a.handleCompleteTask)
				r.Post("/{taskId}/subtasks", a.handleAddSubtask)
				r.Put("/{taskId}/subtasks/{subtaskId}", a.handleUpdateSubtask)
				r.Delete("/{taskId}/subtasks/{subtaskId}", a.handleDeleteSubtask)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", a.handleCreateNote)
				r.Get("/", a.handleListNotes)
				r.Get("/pinned", a.handlePinnedNotes)
				r.Get("/archived", a.handleArchivedNotes)
				r.Get("/tags", a.handleNoteTags)
				r.Get("/stats", a.handleNoteStats)
				r.Get("/category/{category}", a.handleNotesByCategory)
				r.Get("/{noteId}", a.handleGetNote)
				r.Put("/{noteId}", a.handleUpdateNote)
				r.Delete("/{noteId}", a.handleDeleteNote)
				r.Patch("/{noteId}/pin", a.handleTogglePin)
				r.Patch("/{noteId}/archive", a.handleToggleArchive)
				r.Post("/{noteId}/tags", a.handleAddTag)
				r.Delete("/{noteId}/tags/{tag}", a.handleRemoveTag)
				r.Post("/{noteId}/reminders", a.handleAddReminder)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Post("/message", a.handleSendMessage)
				r.Get("/history", a.handleChatHistory)
				r.Get("/history/{sessionId}", a.handleChatHistory)
				r.Get("/sessions", a.handleChatSessions)
				r.Delete("/sessions/{sessionId}", a.handleDeleteSession)
				r.Put("/messages/{messageId}", a.handleEditMessage)
				r.Post("/messages/{messageId}/reaction", a.handleAddReaction)
				r.Delete("/messages/{messageId}/reaction/{type}", a.handleRemoveReaction)
				r.Get("/search", a.handleSearchMessages)
				r.Get("/stats", a.handleChatStats)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "ROUTE_NOT_FOUND", "Route not found")
	})
	return r
}
