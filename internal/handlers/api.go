package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/mem"

	"flicks/internal/core"
	"flicks/internal/models"
	"flicks/internal/state"
	"flicks/internal/utils"
)

type APIHandler struct {
	manager    *core.Manager
	controller *state.Controller
	sessions   *state.Store
	logger     *utils.Logger
	upgrader   websocket.Upgrader
}

// A helper function to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to respond with a JSON error
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

func NewAPIHandler(manager *core.Manager, controller *state.Controller, sessions *state.Store, logger *utils.Logger) *APIHandler {
	return &APIHandler{
		manager:    manager,
		controller: controller,
		sessions:   sessions,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// stateView is a snapshot together with its derived lists.
type stateView struct {
	state.State
	Filtered       []models.MovieDetails `json:"filtered"`
	FavoriteMovies []models.MovieDetails `json:"favorite_movies"`
	ShowSearch     bool                  `json:"show_search"`
}

func viewOf(st state.State) stateView {
	return stateView{
		State:          st,
		Filtered:       state.Filtered(st),
		FavoriteMovies: state.FavoriteMovies(st),
		ShowSearch:     state.ShowSearch(st),
	}
}

// GetState returns the session's snapshot, running the initial load first
// when the session is new.
func (h *APIHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	st := sess.Snapshot()
	if st.Status == state.StatusIdle {
		st = h.controller.Load(r.Context(), sess)
	}
	respondJSON(w, http.StatusOK, viewOf(st))
}

func (h *APIHandler) GetGenres(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{
		"genres": append([]string{models.GenreAll}, models.Genres...),
	})
}

func (h *APIHandler) SelectGenre(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Genre string `json:"genre"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	st, err := h.controller.SelectGenre(r.Context(), sessionFrom(r), req.Genre)
	if err != nil {
		if errors.Is(err, core.ErrUnknownGenre) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to select genre")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(st))
}

func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}
	st := h.controller.Search(r.Context(), sessionFrom(r), query)
	respondJSON(w, http.StatusOK, viewOf(st))
}

func (h *APIHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, viewOf(h.controller.ClearSearch(sessionFrom(r))))
}

// GetMovie opens the detail view for a movie and returns its details.
func (h *APIHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st := h.controller.OpenMovie(r.Context(), sessionFrom(r), id)
	if st.Detail.Error != "" || st.Selected == nil {
		respondError(w, http.StatusBadGateway, st.Detail.Error)
		return
	}
	respondJSON(w, http.StatusOK, st.Selected)
}

func (h *APIHandler) CloseMovie(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, viewOf(h.controller.CloseMovie(sessionFrom(r))))
}

func (h *APIHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st := h.controller.ToggleFavorite(sessionFrom(r), id)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":        id,
		"favorite":  state.IsFavorite(st, id),
		"favorites": st.Favorites,
	})
}

func (h *APIHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r).Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ids":    st.Favorites,
		"movies": state.FavoriteMovies(st),
	})
}

// Get system status
func (h *APIHandler) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := struct {
		core.Status
		Sessions    int     `json:"sessions"`
		MemoryUsed  uint64  `json:"memory_used_bytes,omitempty"`
		MemoryTotal uint64  `json:"memory_total_bytes,omitempty"`
		MemoryPct   float64 `json:"memory_used_percent,omitempty"`
		Time        string  `json:"time"`
	}{
		Status:   h.manager.GetSystemStatus(),
		Sessions: h.sessions.Len(),
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemoryUsed = vm.Used
		status.MemoryTotal = vm.Total
		status.MemoryPct = vm.UsedPercent
	} else {
		h.logger.Debug("Memory stats unavailable", "error", err)
	}

	respondJSON(w, http.StatusOK, status)
}

// Test notifications
func (h *APIHandler) TestNotifier(w http.ResponseWriter, r *http.Request) {
	err := h.manager.TestNotifier()
	if err != nil {
		h.logger.Warn("Notifier test failed", "error", err)
		respondJSON(w, http.StatusOK, map[string]interface{}{"ok": false, "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
