package api

import (
	"io/fs"
	"net/http"

	"bpfmon/internal/handlers"
	"bpfmon/internal/middleware"
	"bpfmon/internal/service"

	"github.com/gorilla/mux"
)

type Router struct {
	*mux.Router
}

func NewRouter(m *service.Monitor, templatesFS, staticFS fs.FS) (*Router, error) {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	tmplHandler, err := handlers.NewTemplateHandler(templatesFS, m)
	if err != nil {
		return nil, err
	}

	monHandler := handlers.NewMonitorHandler(m)

	r.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/ready", handlers.ReadyCheck).Methods(http.MethodGet)

	r.HandleFunc("/", tmplHandler.ServeTemplate("dashboard", "dashboard", "Monitoring")).Methods(http.MethodGet)

	staticHandler := http.FileServer(http.FS(staticFS))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", staticHandler))

	api := r.PathPrefix("/api").Subrouter()
	api.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	api.HandleFunc("/tools", monHandler.GetTools).Methods(http.MethodGet)
	api.HandleFunc("/session", monHandler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/session/start", monHandler.StartSession).Methods(http.MethodPost)
	api.HandleFunc("/session/stop", monHandler.StopSession).Methods(http.MethodPost)
	api.HandleFunc("/session/clear", monHandler.ClearSession).Methods(http.MethodPost)
	api.HandleFunc("/session/rows", monHandler.GetRows).Methods(http.MethodGet)
	api.HandleFunc("/graph", monHandler.GetGraph).Methods(http.MethodGet)
	api.HandleFunc("/logs", monHandler.GetLogs).Methods(http.MethodGet)
	api.HandleFunc("/preflight", monHandler.GetPreflight).Methods(http.MethodGet)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)

	return &Router{Router: r}, nil
}
