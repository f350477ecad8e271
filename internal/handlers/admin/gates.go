package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evn/appgate/internal/gateaudit"
	"github.com/evn/appgate/internal/models"
	"github.com/evn/appgate/internal/pkg/response"
	"github.com/evn/appgate/internal/repositories"
	"github.com/evn/appgate/internal/semver"
	"github.com/evn/appgate/internal/services/gates"
	"github.com/evn/appgate/internal/services/notify"
)

// GateHandler serves the operator CRUD over version gates.
type GateHandler struct {
	gates           *gates.Service
	notifier        *notify.TelegramNotifier
	credentialsFile string
}

func NewGateHandler(gatesService *gates.Service, notifier *notify.TelegramNotifier, credentialsFile string) *GateHandler {
	return &GateHandler{
		gates:           gatesService,
		notifier:        notifier,
		credentialsFile: credentialsFile,
	}
}

// ListHandler returns every configured gate.
func (h *GateHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	all, err := h.gates.List(r.Context())
	if err != nil {
		log.Printf("Failed to list gates: %v", err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to list gates")
		return
	}
	if all == nil {
		all = []models.VersionGate{}
	}

	response.RespondWithJSON(w, http.StatusOK, all)
}

// GetHandler returns the gate for a single platform.
func (h *GateHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")

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

// upsertResponse is the stored gate plus any audit findings the new
// configuration triggers. The gate fields stay at the top level, so clients
// that only know plain gates keep working.
type upsertResponse struct {
	models.VersionGate
	Warnings []gateaudit.Finding `json:"warnings,omitempty"`
}

// UpsertHandler creates or replaces the gate for the platform in the URL.
// Operator input is validated strictly; a misconfigured floor should die
// here, not at client check time. Legal-but-suspicious configurations are
// saved and reported back as warnings.
func (h *GateHandler) UpsertHandler(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")

	var gate models.VersionGate
	if err := json.NewDecoder(r.Body).Decode(&gate); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	gate.Platform = platform

	if err := validateGateVersions(&gate); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Previous state drives the change alert; a missing row just means
	// this is a brand new gate.
	old, _ := h.gates.GetByPlatform(r.Context(), platform)

	if err := h.gates.Upsert(r.Context(), &gate); err != nil {
		log.Printf("Failed to upsert gate for %s: %v", platform, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to save gate")
		return
	}

	go h.notifier.GateUpdated(old, &gate)

	response.RespondWithJSON(w, http.StatusOK, upsertResponse{
		VersionGate: gate,
		Warnings:    gateaudit.Run([]models.VersionGate{gate}).Findings,
	})
}

// DeleteHandler removes the gate for a platform.
func (h *GateHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")

	if err := h.gates.Delete(r.Context(), platform); err != nil {
		if errors.Is(err, repositories.ErrGateNotFound) {
			response.RespondWithError(w, http.StatusNotFound, "No version gate configured for platform "+platform)
			return
		}
		log.Printf("Failed to delete gate for %s: %v", platform, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete gate")
		return
	}

	go h.notifier.GateDeleted(platform)

	response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Gate deleted successfully"})
}

// AuditHandler lints the whole gate table and returns the findings. The
// response is always 200; severity lives inside the report.
func (h *GateHandler) AuditHandler(w http.ResponseWriter, r *http.Request) {
	all, err := h.gates.List(r.Context())
	if err != nil {
		log.Printf("Failed to list gates for audit: %v", err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to audit gates")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, gateaudit.Run(all))
}

func validateGateVersions(g *models.VersionGate) error {
	if _, err := semver.Parse(g.LatestVersion); err != nil {
		return fmt.Errorf("invalid latest_version: %q", g.LatestVersion)
	}
	if _, err := semver.Parse(g.MinimumVersion); err != nil {
		return fmt.Errorf("invalid minimum_version: %q", g.MinimumVersion)
	}
	if _, err := semver.Parse(g.ForceMinimumVersion); err != nil {
		return fmt.Errorf("invalid force_minimum_version: %q", g.ForceMinimumVersion)
	}
	return nil
}
