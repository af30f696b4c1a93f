package handlers

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/sirupsen/logrus"

	"bpfmon/internal/config"
	"bpfmon/internal/models"
	"bpfmon/internal/service"
)

type PageData struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	Tools           []config.Tool
	Status          models.SessionStatus
	RefreshInterval string
}

type TemplateHandler struct {
	templates *template.Template
	m         *service.Monitor
}

func NewTemplateHandler(templatesFS fs.FS, m *service.Monitor) (*TemplateHandler, error) {
	tmpl, err := template.ParseFS(templatesFS, "*.html")
	if err != nil {
		return nil, err
	}

	return &TemplateHandler{
		templates: tmpl,
		m:         m,
	}, nil
}

func (th *TemplateHandler) buildPageData(currentPage, pageTitle string) PageData {
	return PageData{
		Title:           "bpfmon - " + pageTitle,
		PageTitle:       pageTitle,
		CurrentPage:     currentPage,
		Tools:           th.m.Tools(),
		Status:          th.m.Status(),
		RefreshInterval: "1s",
	}
}

func (th *TemplateHandler) ServeTemplate(templateName, currentPage, pageTitle string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := th.buildPageData(currentPage, pageTitle)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if err := th.templates.ExecuteTemplate(w, templateName+".html", data); err != nil {
			logrus.WithField("template", templateName).WithError(err).Error("Error executing template")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}
}
