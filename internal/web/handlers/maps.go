package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/resqbites/matcher/internal/maplayer"
	"github.com/resqbites/matcher/internal/store"
)

// MapsHandler handles map-related endpoints. A map session follows the
// widget lifecycle: create (mount), load (plot), delete (teardown).
type MapsHandler struct {
	Store    *store.Store
	Registry *maplayer.Registry
	Scenes   *maplayer.SceneRenderer
}

// SessionRequest asks for a map to be mounted in a browser container
type SessionRequest struct {
	Container string `json:"container"`
	Token     string `json:"token"`
}

// SessionResponse describes a mounted map
type SessionResponse struct {
	Container string                `json:"container"`
	Handle    string                `json:"handle"`
	State     string                `json:"state"`
	Init      maplayer.MountOptions `json:"init"`
	Scene     *maplayer.Scene       `json:"scene,omitempty"`
}

// GetGeoJSON returns the match lines as a FeatureCollection; ?category=
// narrows it like the list view
func (h *MapsHandler) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	fs, err := parseFilterSort(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(maplayer.LineFeatures(h.Store.View(fs))); err != nil {
		log.Printf("failed to encode geojson: %v", err)
	}
}

// CreateSession mounts a map widget for the request's container. A bad
// token or an empty store comes back as 422 with an inline message.
func (h *MapsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON request")
		return
	}
	if req.Container == "" {
		writeError(w, http.StatusBadRequest, "missing_container", "container is required")
		return
	}

	c, err := h.Registry.Activate(r.Context(), req.Container, req.Token, h.Store.Records())
	if err != nil {
		h.writeActivateError(w, err)
		return
	}

	handle := c.Handle()
	scene, err := h.Scenes.Scene(handle)
	if err != nil {
		writeError(w, http.StatusConflict, "not_active", "map was torn down while mounting")
		return
	}

	writeJSON(w, http.StatusCreated, SessionResponse{
		Container: req.Container,
		Handle:    handle,
		State:     c.State().String(),
		Init:      scene.Init,
	})
}

func (h *MapsHandler) writeActivateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, maplayer.ErrInvalidCredential):
		writeError(w, http.StatusUnprocessableEntity, "invalid_credential", maplayer.UserMessage(err))
	case errors.Is(err, maplayer.ErrEmptyDataset):
		writeError(w, http.StatusUnprocessableEntity, "empty_dataset", maplayer.UserMessage(err))
	default:
		log.Printf("map activation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "activation_failed", "The map could not be loaded.")
	}
}

// LoadSession delivers the browser's load signal and returns the plotted
// scene. A container torn down in the meantime gets 404.
func (h *MapsHandler) LoadSession(w http.ResponseWriter, r *http.Request) {
	container := mux.Vars(r)["container"]

	c, ok := h.Registry.Lookup(container)
	if !ok || c.State() != maplayer.Active {
		writeError(w, http.StatusNotFound, "not_active", "no map mounted in "+container)
		return
	}

	handle := c.Handle()
	if err := h.Scenes.Load(handle); err != nil {
		writeError(w, http.StatusNotFound, "not_active", err.Error())
		return
	}
	h.writeScene(w, container, c, handle)
}

// GetSession returns the current scene of a container
func (h *MapsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	container := mux.Vars(r)["container"]

	c, ok := h.Registry.Lookup(container)
	if !ok || c.State() != maplayer.Active {
		writeError(w, http.StatusNotFound, "not_active", "no map mounted in "+container)
		return
	}
	h.writeScene(w, container, c, c.Handle())
}

func (h *MapsHandler) writeScene(w http.ResponseWriter, container string, c *maplayer.Controller, handle string) {
	scene, err := h.Scenes.Scene(handle)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_active", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{
		Container: container,
		Handle:    handle,
		State:     c.State().String(),
		Init:      scene.Init,
		Scene:     &scene,
	})
}

// DeleteSession tears the container's map down; unknown containers are fine
func (h *MapsHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	container := mux.Vars(r)["container"]

	if err := h.Registry.Teardown(container); err != nil {
		log.Printf("map teardown for %s: %v", container, err)
	}
	w.WriteHeader(http.StatusNoContent)
}
