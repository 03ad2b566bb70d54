package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/theblitlabs/parity-stake/internal/dashboard"
	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/pkg/logger"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	View     dashboard.View
	Endpoint string
}

// Page renders the staking page. The page script keeps it current through
// the JSON and websocket endpoints under endpoint.
func (h *StakingHandler) Page(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		data := pageData{
			View:     h.view(r, sess, ""),
			Endpoint: endpoint,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, data); err != nil {
			log := logger.WithComponent("api")
			log.Error().Err(err).Msg("Page render failed")
		}
	}
}
