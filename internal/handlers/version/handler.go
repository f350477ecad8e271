package version

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evn/appgate/internal/gate"
	"github.com/evn/appgate/internal/hub"
	"github.com/evn/appgate/internal/models"
	"github.com/evn/appgate/internal/pkg/response"
	"github.com/evn/appgate/internal/repositories"
	"github.com/evn/appgate/internal/semver"
	"github.com/evn/appgate/internal/services/gates"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves the public version endpoints mobile clients hit before
// login. Nothing here requires a token.
type Handler struct {
	gates    *gates.Service
	eventHub *hub.Hub
}

func NewHandler(gatesService *gates.Service, eventHub *hub.Hub) *Handler {
	return &Handler{
		gates:    gatesService,
		eventHub: eventHub,
	}
}

// CheckHandler resolves the update status for a client version.
func (h *Handler) CheckHandler(w http.ResponseWriter, r *http.Request) {
	var req models.VersionCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Platform == "" {
		req.Platform = detectPlatform(r)
	}
	if req.Platform == "" {
		response.RespondWithError(w, http.StatusBadRequest, "Platform is required")
		return
	}
	if req.CurrentVersion == "" {
		response.RespondWithError(w, http.StatusBadRequest, "current_version is required")
		return
	}

	// Reject the client's own version before touching the gate, so a bad
	// client input never reads as a server misconfiguration.
	if _, err := semver.Parse(req.CurrentVersion); err != nil {
		response.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid current_version format")
		return
	}

	g, err := h.gates.GetByPlatform(r.Context(), req.Platform)
	if err != nil {
		if errors.Is(err, repositories.ErrGateNotFound) {
			response.RespondWithError(w, http.StatusNotFound, "No version gate configured for platform "+req.Platform)
			return
		}
		log.Printf("Failed to load gate for %s: %v", req.Platform, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to check version")
		return
	}

	status, err := gate.ResolveStrings(req.CurrentVersion, g.MinimumVersion, g.ForceMinimumVersion, g.MaintenanceMode)
	if err != nil {
		// Current version already parsed above, so this is our data.
		log.Printf("Gate for %s is misconfigured: %v", g.Platform, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Version check unavailable")
		return
	}

	resp := models.VersionCheckResponse{
		Status:              status,
		LatestVersion:       g.LatestVersion,
		MinimumVersion:      g.MinimumVersion,
		ForceMinimumVersion: g.ForceMinimumVersion,
		StoreURL:            g.StoreURL,
		ReleaseNotes:        g.ReleaseNotes,
	}
	if status == gate.StatusMaintenance {
		resp.Message = g.MaintenanceMessage
	}

	log.Printf("Version check: platform=%s current=%s status=%s", req.Platform, req.CurrentVersion, status)
	response.RespondWithJSON(w, http.StatusOK, resp)
}

// GateHandler returns the raw gate configuration for a platform.
func (h *Handler) GateHandler(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	if platform == "" {
		platform = detectPlatform(r)
	}
	if platform == "" {
		response.RespondWithError(w, http.StatusBadRequest, "Platform is required")
		return
	}

	g, err := h.gates.GetByPlatform(r.Context(), platform)
	if err != nil {
		if errors.Is(err, repositories.ErrGateNotFound) {
			response.RespondWithError(w, http.StatusNotFound, "No version gate configured for platform "+platform)
			return
		}
		log.Printf("Failed to load gate for %s: %v", platform, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to load gate")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, g)
}

// StreamHandler upgrades the connection and feeds the client gate events as
// operators change things. An optional platform query narrows the stream.
// The current state goes out first, so subscribers need no separate fetch.
func (h *Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade error: %v", err)
		return
	}

	client := &hub.Client{
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Platform: platform,
	}

	h.queueSnapshot(r, client)
	h.eventHub.Register(client)

	go h.eventHub.ReadPump(client)
	go h.eventHub.WritePump(client)
}

// queueSnapshot loads the gates the client subscribed to and puts snapshot
// events on its send queue before it joins the hub, so they always arrive
// ahead of live events. A client with no configured gate simply starts with
// an empty stream.
func (h *Handler) queueSnapshot(r *http.Request, client *hub.Client) {
	var snapshot []models.VersionGate

	if client.Platform != "" {
		g, err := h.gates.GetByPlatform(r.Context(), client.Platform)
		if err != nil {
			if !errors.Is(err, repositories.ErrGateNotFound) {
				log.Printf("Failed to load snapshot for %s: %v", client.Platform, err)
			}
			return
		}
		snapshot = []models.VersionGate{*g}
	} else {
		all, err := h.gates.List(r.Context())
		if err != nil {
			log.Printf("Failed to load stream snapshot: %v", err)
			return
		}
		snapshot = all
	}

	for i := range snapshot {
		data, err := json.Marshal(models.GateEvent{
			Type:      models.EventGateSnapshot,
			Platform:  snapshot[i].Platform,
			Gate:      &snapshot[i],
			Timestamp: time.Now(),
		})
		if err != nil {
			continue
		}
		client.Send <- data
	}
}

func detectPlatform(r *http.Request) string {
	userAgent := r.Header.Get("User-Agent")
	switch {
	case strings.Contains(userAgent, "Android"):
		return "android"
	case strings.Contains(userAgent, "iPhone"), strings.Contains(userAgent, "iPad"), strings.Contains(userAgent, "iOS"):
		return "ios"
	default:
		return ""
	}
}
