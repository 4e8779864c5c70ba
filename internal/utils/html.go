package utils

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/brizzai/starfetch/internal/logger"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// ErrorPage is the data of the error.html template
type ErrorPage struct {
	Status  int
	Code    string
	Message string
}

// WriteHTML renders the named template into w with the given status.
func WriteHTML(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Warn("Failed to write HTML response", zap.Error(err))
	}
}

// WriteHTMLError renders the error page
func WriteHTMLError(w http.ResponseWriter, code, message string, status int) {
	WriteHTML(w, status, "error.html", ErrorPage{Status: status, Code: code, Message: message})
}
