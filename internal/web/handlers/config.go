package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-console/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	ApplianceURL         string                `json:"appliance_url"`
	VideoFeedPath        string                `json:"video_feed_path"`
	PollIntervalSeconds  float64               `json:"poll_interval_seconds"`
	AnnounceResetSeconds float64               `json:"announce_reset_seconds"`
	SpeechEnabled        bool                  `json:"speech_enabled"`
	AnnounceTiers        []config.AnnounceTier `json:"announce_tiers"`
	JournalPersistent    bool                  `json:"journal_persistent"`
}

// Get returns the console configuration without secrets
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		ApplianceURL:         h.config.Appliance.URL,
		VideoFeedPath:        "/video_feed",
		PollIntervalSeconds:  h.config.Poller.Interval.Seconds(),
		AnnounceResetSeconds: h.config.Poller.AnnounceReset.Seconds(),
		SpeechEnabled:        h.config.Announce.Command != "",
		AnnounceTiers:        h.config.Announce.Tiers,
		JournalPersistent:    h.config.Database.URL != "",
	}

	respondJSON(w, http.StatusOK, response)
}
