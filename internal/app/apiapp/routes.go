package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
	catsvc "github.com/ivankudzin/dochub/internal/services/categories"
	commentsvc "github.com/ivankudzin/dochub/internal/services/comments"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
	likesvc "github.com/ivankudzin/dochub/internal/services/likes"
	mediasvc "github.com/ivankudzin/dochub/internal/services/media"
	rolesvc "github.com/ivankudzin/dochub/internal/services/roles"
	usersvc "github.com/ivankudzin/dochub/internal/services/users"
	viewsvc "github.com/ivankudzin/dochub/internal/services/views"
	"github.com/ivankudzin/dochub/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService     *authsvc.Service
	UserService     *usersvc.Service
	DocumentService *docsvc.Service
	CategoryService *catsvc.Service
	CommentService  *commentsvc.Service
	LikeService     *likesvc.Service
	ViewService     *viewsvc.Service
	RoleService     *rolesvc.Service
	MediaService    *mediasvc.Service
	Logger          *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	var photos handlers.URLSigner
	if deps.MediaService != nil {
		photos = deps.MediaService
	}

	authHandler := handlers.NewAuthHandler(deps.AuthService, photos)
	healthHandler := handlers.NewHealthHandler()
	userHandler := handlers.NewUserHandler(deps.UserService)
	documentHandler := handlers.NewDocumentHandler(deps.DocumentService)
	categoryHandler := handlers.NewCategoryHandler(deps.CategoryService)
	commentHandler := handlers.NewCommentHandler(deps.CommentService)
	likeHandler := handlers.NewLikeHandler(deps.LikeService)
	viewHandler := handlers.NewViewHandler(deps.ViewService)
	roleHandler := handlers.NewRoleHandler(deps.RoleService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	adminMW := RequireRole(enums.RoleAdmin)
	moderatorMW := RequireRole(enums.RoleAdmin, enums.RoleHR)

	r.Get("/health", healthHandler.Health)
	r.Get("/healthz", healthHandler.Get)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/confirm", authHandler.Confirm)
		r.Post("/resend", authHandler.Resend)
		r.Post("/refresh", authHandler.Refresh)
		r.Get("/verify-email", authHandler.VerifyEmail)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Route("/user", func(r chi.Router) {
			r.Get("/", userHandler.ByID)
			r.Get("/me", userHandler.Me)
			r.Put("/profile", userHandler.UpdateProfile)
			r.Post("/photo", userHandler.UploadPhoto)
			r.Post("/avatar/generate", userHandler.GenerateAvatar)
			r.Post("/logout", authHandler.Logout)
			r.Post("/logout-all", authHandler.LogoutAll)

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminMW)
				r.Get("/users", userHandler.List)
				r.Delete("/", userHandler.Delete)
				r.Post("/logout-all", userHandler.RevokeSessions)
			})

			r.With(adminMW).Put("/roles/change", userHandler.ChangeRole)
		})

		r.Get("/documents", documentHandler.List)
		r.With(moderatorMW).Post("/documents", documentHandler.Create)

		r.Route("/documents/{id}", func(r chi.Router) {
			r.Get("/", documentHandler.Get)
			r.With(moderatorMW).Patch("/", documentHandler.Update)
			r.With(adminMW).Delete("/", documentHandler.Delete)
			r.Get("/file", documentHandler.File)

			r.Get("/comments", commentHandler.List)
			r.Post("/comments", commentHandler.Create)
			r.Delete("/comments/{comment_id}", commentHandler.Delete)

			r.Put("/like", likeHandler.Like)
			r.Delete("/like", likeHandler.Unlike)
			r.Get("/likes", likeHandler.Count)

			r.Put("/view", viewHandler.Mark)
			r.Get("/views", viewHandler.Count)
			r.With(moderatorMW).Get("/viewers", viewHandler.Viewers)
		})

		r.Get("/categories", categoryHandler.List)
		r.With(moderatorMW).Post("/categories", categoryHandler.Create)
		r.Get("/categories/{id}/documents", categoryHandler.Documents)

		r.Get("/roles/getall", roleHandler.List)
	})
}
