package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-console/internal/web/handlers"
	"github.com/kozaktomas/face-console/internal/web/static"
)

func (s *Server) setupRoutes() error {
	svc := s.services

	statusHandler := handlers.NewStatusHandler(svc.Poller)
	cameraHandler := handlers.NewCameraHandler(svc.Trigger, svc.Poller)
	recognitionHandler := handlers.NewRecognitionHandler(svc.Trigger, svc.Poller)
	usersHandler := handlers.NewUsersHandler(svc.Directory)
	enrollmentHandler := handlers.NewEnrollmentHandler(svc.Enrollment)
	simpleHandler := handlers.NewSimpleHandler(svc.Trigger, svc.Appliance, svc.Poller)
	journalHandler := handlers.NewJournalHandler(svc.Journal)
	configHandler := handlers.NewConfigHandler(s.config)

	videoFeed, err := handlers.NewVideoFeedProxy(svc.Appliance.VideoFeedURL())
	if err != nil {
		return fmt.Errorf("failed to set up video feed proxy: %w", err)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Long-lived streams are not subject to the request timeout
		r.Get("/status/events", statusHandler.Events)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(apiTimeout))

			// Status
			r.Get("/status", statusHandler.Get)
			r.Post("/status/refresh", statusHandler.Refresh)

			// Camera
			r.Post("/camera/start", cameraHandler.Start)
			r.Post("/camera/stop", cameraHandler.Stop)

			// Recognition
			r.Post("/recognize", recognitionHandler.Recognize)
			r.Get("/recognition", recognitionHandler.Last)
			r.Get("/recognitions", journalHandler.List)

			// Users
			r.Get("/users", usersHandler.List)
			r.Post("/users/refresh", usersHandler.Refresh)
			r.Delete("/users/{name}", usersHandler.Delete)
			r.Put("/users/{name}", usersHandler.Rename)

			// Enrollment
			r.Get("/enrollment", enrollmentHandler.Get)
			r.Post("/enrollment/start", enrollmentHandler.Start)
			r.Post("/enrollment/capture", enrollmentHandler.Capture)
			r.Post("/enrollment/cancel", enrollmentHandler.Cancel)
			r.Post("/enrollment/abandon", enrollmentHandler.Abandon)

			// Simple mode
			r.Post("/simple/recognize", simpleHandler.Recognize)
			r.Post("/simple/enroll", simpleHandler.Enroll)
			r.Get("/simple/status", simpleHandler.Status)

			// Config
			r.Get("/config", configHandler.Get)
		})
	})

	s.router.Handle("/video_feed", videoFeed)

	// Serve static files for frontend (SPA)
	s.router.Get("/*", s.serveSPA)
	return nil
}

// serveSPA serves the embedded console page and its assets
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	name := r.URL.Path
	if name == "/" {
		name = "/index.html"
	}

	f, err := fs.Open(name)
	if err != nil && !strings.HasPrefix(name, "/assets/") {
		// Unknown non-asset paths fall back to the console page
		name = "/index.html"
		f, err = fs.Open(name)
	}
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if strings.HasPrefix(name, "/assets/") {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}

	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}
