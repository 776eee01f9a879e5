// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/campaignforge/minicrm-backend/internal/errors"
	"github.com/campaignforge/minicrm-backend/internal/model"
	"github.com/campaignforge/minicrm-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

type campaignRequest struct {
	Rules       []model.Rule      `json:"rules"`
	Conjunction model.Conjunction `json:"conjunction"`
	Name        string            `json:"name"`
	Channel     string            `json:"channel"`
	Message     string            `json:"message"`
	ScheduledAt *string           `json:"scheduled_at"`
}

// PreviewAudience computes the audience size for a rule set without
// persisting anything.
func (c *CampaignController) PreviewAudience(w http.ResponseWriter, r *http.Request) {
	var body campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Rules) == 0 {
		writeError(w, http.StatusBadRequest, "rules must be a non-empty list")
		return
	}

	size, err := c.CampaignService.PreviewAudience(body.Rules, body.Conjunction)
	if err != nil {
		if errors.Is(err, appErrors.ErrEmptyRuleSet) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server error during preview")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"audience_size": size})
}

// CreateCampaign persists the campaign and kicks off delivery. The response
// returns as soon as the campaign record exists; dispatch runs behind it.
func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Rules) == 0 {
		writeError(w, http.StatusBadRequest, "rules must be a non-empty list")
		return
	}

	in := service.CreateCampaignInput{
		Name:        body.Name,
		Channel:     body.Channel,
		Message:     body.Message,
		Rules:       body.Rules,
		Conjunction: body.Conjunction,
	}
	if body.ScheduledAt != nil {
		t, err := time.Parse(time.RFC3339, *body.ScheduledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "scheduled_at must be RFC3339")
			return
		}
		in.ScheduledAt = &t
	}

	campaign, err := c.CampaignService.CreateCampaign(in)
	if err != nil {
		if errors.Is(err, appErrors.ErrEmptyRuleSet) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "error creating campaign")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Campaign created and delivery process started.",
		"campaign": campaign,
	})
}

// ListCampaigns returns a page of campaigns, newest first, each with stats.
func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	campaigns, pagination, err := c.CampaignService.ListPage(page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error fetching campaigns")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

// History returns every campaign newest-first with aggregated stats.
func (c *CampaignController) History(w http.ResponseWriter, r *http.Request) {
	campaigns, err := c.CampaignService.ListWithStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error fetching campaign history")
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// GetCampaign returns one campaign with stats.
func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	details, err := c.CampaignService.GetWithStats(id)
	if err != nil {
		var notFound *appErrors.ErrCampaignNotFound
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server error fetching campaign")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}
