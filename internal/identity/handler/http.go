// Package handler serves the page a Slack user opens to link their platform account.
package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"slack-identity-linker/internal/identity/service"
	"slack-identity-linker/internal/security"
	"slack-identity-linker/internal/server/middleware"
)

// TokenVar is the mux path variable holding the signed link token.
const TokenVar = "signed_params"

// Route is the link page pattern registered on the router.
const Route = service.LinkPathPrefix + "{" + TokenVar + "}/"

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Unsigner verifies link tokens.
type Unsigner interface {
	Unsign(token string) (security.LinkParams, error)
}

// Linker is the link service as seen by the handler.
type Linker interface {
	Prepare(ctx context.Context, userID string, params security.LinkParams) (*service.LinkTarget, error)
	Link(ctx context.Context, userID string, target *service.LinkTarget) (*service.LinkResult, error)
}

// LinkHandler renders the confirmation page on GET and performs the link on POST.
type LinkHandler struct {
	unsigner Unsigner
	linker   Linker
	origins  *http.CrossOriginProtection
	log      *zap.Logger
}

// NewLinkHandler returns a LinkHandler.
func NewLinkHandler(unsigner Unsigner, linker Linker, log *zap.Logger) *LinkHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkHandler{
		unsigner: unsigner,
		linker:   linker,
		origins:  http.NewCrossOriginProtection(),
		log:      log,
	}
}

// TrustOrigin allows POSTs from origin (e.g. "https://app.example.com") in addition to same-origin ones.
func (h *LinkHandler) TrustOrigin(origin string) error {
	return h.origins.AddTrustedOrigin(origin)
}

// Register mounts the link route on r.
func (h *LinkHandler) Register(r *mux.Router) {
	r.Handle(Route, h).Methods(http.MethodGet, http.MethodPost)
}

type confirmPage struct {
	OrganizationName string
	ProviderName     string
	IntegrationName  string
}

type linkedPage struct {
	ChannelID string
	TeamID    string
	SlackURL  template.URL
}

// ServeHTTP implements http.Handler.
func (h *LinkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	neverCache(w)

	// The access cookie rides along on cross-site form posts; only GET may come from elsewhere.
	if err := h.origins.Check(r); err != nil {
		h.log.Warn("identity link: cross-origin request rejected",
			zap.String("origin", r.Header.Get("Origin")),
			zap.String("sec_fetch_site", r.Header.Get("Sec-Fetch-Site")))
		writeStatus(w, http.StatusForbidden)
		return
	}

	params, err := h.unsigner.Unsign(mux.Vars(r)[TokenVar])
	if err != nil {
		writeStatus(w, http.StatusNotFound)
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	if userID == "" {
		writeStatus(w, http.StatusUnauthorized)
		return
	}

	target, err := h.linker.Prepare(r.Context(), userID, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if r.Method != http.MethodPost {
		h.render(w, "link_identity.html", confirmPage{
			OrganizationName: target.Org.Name,
			ProviderName:     target.Integration.ProviderName(),
			IntegrationName:  target.Integration.Name,
		})
		return
	}

	res, err := h.linker.Link(r.Context(), userID, target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.render(w, "linked.html", linkedPage{
		ChannelID: res.ChannelID,
		TeamID:    res.TeamID,
		SlackURL:  SlackChannelURL(res.ChannelID, res.TeamID),
	})
}

// SlackChannelURL returns the deep link that opens channelID of teamID in the Slack client.
func SlackChannelURL(channelID, teamID string) template.URL {
	q := url.Values{}
	q.Set("id", channelID)
	q.Set("team", teamID)
	return template.URL("slack://channel?" + q.Encode())
}

// RedactPath hides the signed token of link URLs in access logs.
func RedactPath(path string) string {
	if strings.HasPrefix(path, service.LinkPathPrefix) {
		return service.LinkPathPrefix + ":" + TokenVar + "/"
	}
	return path
}

func (h *LinkHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeStatus(w, http.StatusNotFound)
	case errors.Is(err, service.ErrUnauthenticated):
		writeStatus(w, http.StatusUnauthorized)
	default:
		h.log.Error("identity link failed", zap.String("method", r.Method), zap.Error(err))
		writeStatus(w, http.StatusInternalServerError)
	}
}

func (h *LinkHandler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.Error("render page", zap.String("template", name), zap.Error(err))
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// writeStatus writes a plain-text status page. Unlike http.Error it leaves the cache headers alone.
func writeStatus(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = fmt.Fprintln(w, http.StatusText(code))
}

func neverCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
