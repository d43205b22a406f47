package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/config"
	"github.com/ivankudzin/dochub/internal/infra/avatar"
	"github.com/ivankudzin/dochub/internal/infra/mailer"
	s3infra "github.com/ivankudzin/dochub/internal/infra/s3"
	"github.com/ivankudzin/dochub/internal/jobs/cleanup"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	redrepo "github.com/ivankudzin/dochub/internal/repo/redis"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
	catsvc "github.com/ivankudzin/dochub/internal/services/categories"
	commentsvc "github.com/ivankudzin/dochub/internal/services/comments"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
	likesvc "github.com/ivankudzin/dochub/internal/services/likes"
	mediasvc "github.com/ivankudzin/dochub/internal/services/media"
	ratesvc "github.com/ivankudzin/dochub/internal/services/rate"
	rolesvc "github.com/ivankudzin/dochub/internal/services/roles"
	usersvc "github.com/ivankudzin/dochub/internal/services/users"
	viewsvc "github.com/ivankudzin/dochub/internal/services/views"
)

type App struct {
	cfg           config.Config
	logger        *zap.Logger
	server        *http.Server
	postgres      *pgxpool.Pool
	redis         *goredis.Client
	s3            *minio.Client
	httpRouter    http.Handler
	cleanupJob    *cleanup.Job
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, cfg.HTTP, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	cacheRepo := redrepo.NewCacheRepo(redisClient)

	userRepo := pgrepo.NewUserRepo(pool)
	verificationRepo := pgrepo.NewVerificationRepo(pool)
	categoryRepo := pgrepo.NewCategoryRepo(pool)
	roleRepo := pgrepo.NewRoleRepo(pool)
	documentRepo := pgrepo.NewDocumentRepo(pool)
	commentRepo := pgrepo.NewCommentRepo(pool)
	likeRepo := pgrepo.NewLikeRepo(pool)
	viewRepo := pgrepo.NewViewRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}
	mediaService := mediasvc.NewService(mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket), cfg.S3.URLTTL)

	smtpMailer := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	}, log)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:           jwtManager,
		Sessions:      sessionRepo,
		Users:         userRepo,
		Verifications: verificationRepo,
		Mailer:        smtpMailer,
		Limiter:       ratesvc.NewLimiter(rateRepo, cfg.Auth.LoginPerMinute, cfg.Auth.LoginPerHour),
		Logger:        log,
	}, authsvc.Config{
		RefreshTTL:      cfg.Auth.RefreshTTL,
		VerificationTTL: cfg.Auth.VerificationTTL,
		AppBaseURL:      cfg.Auth.AppBaseURL,
	})

	var avatars usersvc.AvatarRenderer
	if g, err := avatar.NewGenerator(avatar.DefaultSize); err != nil {
		log.Warn("avatar generator init failed", zap.Error(err))
	} else {
		avatars = g
	}

	documentService := docsvc.NewService(documentRepo, mediaService, log)
	userService := usersvc.NewService(userRepo, mediaService, avatars, authService, log)
	categoryService := catsvc.NewService(categoryRepo, cacheRepo, documentService, log)
	roleService := rolesvc.NewService(roleRepo, cacheRepo, log)
	commentService := commentsvc.NewService(commentRepo, documentService, mediaService, log)
	likeService := likesvc.NewService(likeRepo, documentService)
	viewService := viewsvc.NewService(viewRepo, documentService, mediaService, log)

	RegisterRoutes(r, Dependencies{
		AuthService:     authService,
		UserService:     userService,
		DocumentService: documentService,
		CategoryService: categoryService,
		CommentService:  commentService,
		LikeService:     likeService,
		ViewService:     viewService,
		RoleService:     roleService,
		MediaService:    mediaService,
		Logger:          log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	var cleanupJob *cleanup.Job
	if pool != nil {
		cleanupJob = cleanup.New(verificationRepo, documentRepo, mediaService, cfg.Cleanup.DocumentRetention, log)
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())

	return &App{
		cfg:           cfg,
		logger:        log,
		server:        server,
		postgres:      pool,
		redis:         redisClient,
		s3:            s3Client,
		httpRouter:    r,
		cleanupJob:    cleanupJob,
		cleanupCtx:    cleanupCtx,
		cleanupCancel: cleanupCancel,
	}, nil
}

func (a *App) Run() error {
	if a.cleanupJob != nil {
		go a.cleanupJob.Loop(a.cleanupCtx, a.cfg.Cleanup.Interval)
	}

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	a.cleanupCancel()
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
