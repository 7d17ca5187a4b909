package httpserver

import (
	"net/http"
	"strconv"

	"github.com/bryanwahyu/vantage/internal/middleware"
)

// POST /tts
// Body: {"text": "...", "language": "urdu"|"english"}
func (r *Router) handleTTS(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}

	res, err := r.svc.Speech.Speak(req.Context(), middleware.SanitizeString(body.Text), body.Language)
	if err != nil {
		middleware.SpeechRequestsTotal.WithLabelValues(outcome(err), "false").Inc()
		return err
	}
	middleware.SpeechRequestsTotal.WithLabelValues("ok", strconv.FormatBool(res.Cached)).Inc()
	return WriteJSON(w, http.StatusOK, map[string]any{
		"audio":   res.DataURI,
		"success": true,
	})
}
