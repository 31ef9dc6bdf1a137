package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Handlers - набор обработчиков для роутера; S3 может отсутствовать
type Handlers struct {
	Contributions *ContributionHandler
	Folders       *FolderHandler
	Media         *MediaHandler
	Drive         *DriveHandler
	S3            *S3Handler
	YouTube       *YouTubeHandler
	Maps          *MapHandler
	Health        *HealthHandler
}

type RouterOptions struct {
	Auth           func(http.Handler) http.Handler
	RateLimit      func(http.Handler) http.Handler
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		httpLog.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).String(),
			"request":  middleware.GetReqID(r.Context()),
		}).Info("request completed")
	})
}

func limitBody(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if max > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func passThrough(next http.Handler) http.Handler { return next }

func NewRouter(h Handlers, opts RouterOptions) http.Handler {
	authMW := opts.Auth
	if authMW == nil {
		authMW = passThrough
	}
	rateMW := opts.RateLimit
	if rateMW == nil {
		rateMW = passThrough
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(limitBody(opts.MaxUploadBytes))

	if h.Health != nil {
		r.Get("/health", h.Health.Check)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateMW)

		// колбэки OAuth приходят редиректом от Google, без сессии
		r.Group(func(r chi.Router) {
			r.Get("/drive/oauth-callback", h.Drive.OAuthCallback)
			r.Get("/youtube/api/oauth2callback", h.YouTube.OAuthCallback)
			r.Post("/youtube/api/oauth2callback", h.YouTube.OAuthCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Route("/contributions", func(r chi.Router) {
				r.Post("/", h.Contributions.Create)
				r.Get("/account/{accountId}", h.Contributions.ListByAccount)
				r.Get("/{id}", h.Contributions.Get)
				r.Put("/{id}/status", h.Contributions.UpdateStatus)
				r.Post("/{id}/versions", h.Contributions.CreateVersion)
				r.Get("/{id}/versions", h.Contributions.ListVersions)

				r.Route("/versions/{versionId}", func(r chi.Router) {
					r.Get("/", h.Contributions.GetVersion)
					r.Put("/status", h.Contributions.UpdateVersionStatus)
					r.Post("/comments", h.Contributions.AddComment)
					r.Get("/comments", h.Contributions.ListComments)
				})
			})

			r.Route("/folders", func(r chi.Router) {
				r.Post("/", h.Folders.CreateFolder)
				r.Post("/by-creator", h.Folders.CreateByCreator)
				r.Post("/by-editor", h.Folders.CreateByEditor)
				r.Get("/by-creator/{accountId}", h.Folders.ByCreator)
				r.Get("/by-editor/{accountId}", h.Folders.ByEditor)
				r.Get("/items", h.Folders.GetItemsByQuery)
				r.Post("/items", h.Folders.CreateItem)

				r.Route("/{folderId}", func(r chi.Router) {
					r.Get("/", h.Folders.GetFolder)
					r.Put("/", h.Folders.UpdateFolder)
					r.Delete("/", h.Folders.DeleteFolder)
					r.Get("/items", h.Folders.ListItems)
					r.Get("/items/{mediaId}", h.Folders.GetItem)
					r.Delete("/items/{mediaId}", h.Folders.DeleteItem)
				})
			})

			r.Route("/media", func(r chi.Router) {
				r.Post("/", h.Media.Upload)
				r.Get("/", h.Media.List)
				r.Get("/{id}", h.Media.Get)
				r.Delete("/{id}", h.Media.Delete)
			})

			r.Route("/drive", func(r chi.Router) {
				r.Post("/upload-image", h.Drive.UploadImage)
				r.Post("/upload-video", h.Drive.UploadVideo)
				r.Post("/create-folder/{folderName}", h.Drive.CreateFolder)
				r.Get("/check-if-folder-exists/{folderName}", h.Drive.FolderExists)
				r.Get("/auth-url", h.Drive.AuthURL)
			})

			if h.S3 != nil {
				r.Route("/s3", func(r chi.Router) {
					r.Post("/upload-image", h.S3.UploadImage)
					r.Post("/upload-video", h.S3.UploadVideo)
					r.Post("/create-bucket/{bucketName}", h.S3.CreateBucket)
					r.Get("/is-bucket-exists/{bucketName}", h.S3.BucketExists)
				})
			}

			r.Route("/youtube", func(r chi.Router) {
				r.Get("/api/auth", h.YouTube.AuthURL)
				r.Get("/api/channel-info/{id}", h.YouTube.ChannelInfo)
				r.Get("/creator", h.YouTube.ListCreators)
				r.Put("/creator/{id}", h.YouTube.UpdateCreator)
				r.Delete("/creator/{id}", h.YouTube.DeleteCreator)
			})

			r.Route("/creator-editor-map", func(r chi.Router) {
				r.Get("/find-map/{editorMail}", h.Maps.FindMap)
				r.Get("/find-maps-by-creator", h.Maps.FindByCreator)
				r.Get("/find-maps-by-editor", h.Maps.FindByEditor)
				r.Post("/request-editor/{editorId}", h.Maps.RequestEditor)
				r.Put("/update-status/{mapId}/{status}", h.Maps.UpdateStatus)
			})

			r.Route("/account-editor-map", func(r chi.Router) {
				r.Get("/find-accounts-by-editor", h.Maps.AccountsByEditor)
				r.Get("/get-account-editors/{accountId}", h.Maps.AccountEditors)
				r.Post("/link-editor-to-account/{accountId}/{editorId}", h.Maps.LinkEditor)
				r.Put("/unlink-editor-from-account/{accountId}/{editorId}", h.Maps.UnlinkEditor)
			})
		})
	})

	return r
}
