package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"flicks/internal/clients/trailers"
	"flicks/internal/core"
	"flicks/internal/models"
	"flicks/internal/state"
	"flicks/internal/utils"
	"flicks/web"
)

// pageData is what every page template renders from.
type pageData struct {
	Page       string
	Return     string
	State      state.State
	Filtered   []models.MovieDetails
	Favorites  []models.MovieDetails
	ShowSearch bool
	Genres     []string
}

func (p *pageData) IsFavorite(id string) bool {
	return state.IsFavorite(p.State, id)
}

type gridData struct {
	Movies []models.MovieDetails
	Page   *pageData
}

type cardData struct {
	Movie models.MovieDetails
	Page  *pageData
}

var templateFuncs = template.FuncMap{
	"embedURL":  trailers.EmbedURL,
	"searchURL": trailers.SearchURL,
	"gridOf": func(movies []models.MovieDetails, page *pageData) gridData {
		return gridData{Movies: movies, Page: page}
	},
	"cardOf": func(movie models.MovieDetails, page *pageData) cardData {
		return cardData{Movie: movie, Page: page}
	},
}

type PageHandler struct {
	controller *state.Controller
	logger     *utils.Logger
	templates  map[string]*template.Template
}

func NewPageHandler(controller *state.Controller, logger *utils.Logger) (*PageHandler, error) {
	base, err := template.New("").Funcs(templateFuncs).ParseFS(web.Files, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	templates := make(map[string]*template.Template)
	for _, page := range []string{"home", "favorites"} {
		t, err := template.Must(base.Clone()).ParseFS(web.Files, "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		templates[page] = t
	}

	return &PageHandler{controller: controller, logger: logger, templates: templates}, nil
}

func (h *PageHandler) render(w http.ResponseWriter, page, returnTo string, st state.State) {
	data := &pageData{
		Page:       page,
		Return:     returnTo,
		State:      st,
		Filtered:   state.Filtered(st),
		Favorites:  state.FavoriteMovies(st),
		ShowSearch: state.ShowSearch(st),
		Genres:     append([]string{models.GenreAll}, models.Genres...),
	}

	var buf bytes.Buffer
	if err := h.templates[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("Failed to render page", "page", page, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// ensureLoaded runs the initial load for a session that has not had one.
func (h *PageHandler) ensureLoaded(r *http.Request, sess *state.Session) state.State {
	st := sess.Snapshot()
	if st.Status == state.StatusIdle {
		st = h.controller.Load(r.Context(), sess)
	}
	return st
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	h.render(w, "home", "/", h.ensureLoaded(r, sess))
}

func (h *PageHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	h.render(w, "favorites", "/favorites", h.ensureLoaded(r, sess))
}

func (h *PageHandler) SelectGenre(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	genre := r.FormValue("genre")
	if _, err := h.controller.SelectGenre(r.Context(), sess, genre); err != nil {
		if errors.Is(err, core.ErrUnknownGenre) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to select genre", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	h.ensureLoaded(r, sess)
	st := h.controller.Search(r.Context(), sess, r.URL.Query().Get("q"))
	h.render(w, "home", "/", st)
}

func (h *PageHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	h.controller.ClearSearch(sessionFrom(r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) OpenMovie(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	h.ensureLoaded(r, sess)
	st := h.controller.OpenMovie(r.Context(), sess, mux.Vars(r)["id"])

	page, returnTo := "home", "/"
	if r.URL.Query().Get("from") == "favorites" {
		page, returnTo = "favorites", "/favorites"
	}
	h.render(w, page, returnTo, st)
}

func (h *PageHandler) CloseMovie(w http.ResponseWriter, r *http.Request) {
	h.controller.CloseMovie(sessionFrom(r))
	http.Redirect(w, r, returnPath(r), http.StatusSeeOther)
}

func (h *PageHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.controller.ToggleFavorite(sessionFrom(r), mux.Vars(r)["id"])
	http.Redirect(w, r, returnPath(r), http.StatusSeeOther)
}

// returnPath is the local page a form asked to go back to, or "/".
// Browsers read a backslash as a slash, so "/\host" counts as offsite.
func returnPath(r *http.Request) string {
	ret := r.FormValue("return")
	if !strings.HasPrefix(ret, "/") || strings.ContainsRune(ret, '\\') || strings.HasPrefix(ret, "//") {
		return "/"
	}
	u, err := url.Parse(ret)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return ret
}
