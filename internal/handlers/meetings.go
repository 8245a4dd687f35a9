package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/boardroom"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// InvalidTypeResponse lists the accepted meeting types.
type InvalidTypeResponse struct {
	Error      string               `json:"error"`
	ValidTypes []models.MeetingType `json:"validTypes"`
}

// meetingType validates the {type} URL parameter, writing a 400 on failure.
func (h *Handler) meetingType(w http.ResponseWriter, r *http.Request) (models.MeetingType, bool) {
	t, ok := models.ParseMeetingType(chi.URLParam(r, "type"))
	if !ok {
		h.JSON(w, http.StatusBadRequest, InvalidTypeResponse{
			Error:      "Invalid meeting type",
			ValidTypes: models.MeetingTypes(),
		})
	}
	return t, ok
}

// MeetingTypes lists the meeting cadences with their labels.
func (h *Handler) MeetingTypes(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, boardroom.MeetingTypeInfos())
}

// GetMeeting returns the latest report for a type, generating one if none exists.
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	t, ok := h.meetingType(w, r)
	if !ok {
		return
	}
	report, err := h.boardroom.GetMeeting(r.Context(), t)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch meeting report")
		return
	}
	h.JSON(w, http.StatusOK, report)
}

// RunMeeting forces a new report for a type.
func (h *Handler) RunMeeting(w http.ResponseWriter, r *http.Request) {
	t, ok := h.meetingType(w, r)
	if !ok {
		return
	}
	report, err := h.boardroom.RunMeeting(r.Context(), t)
	if err != nil {
		h.fail(w, r, err, "Failed to run meeting")
		return
	}
	h.JSON(w, http.StatusOK, report)
}

// MeetingHistory lists recent reports across all types, newest first.
func (h *Handler) MeetingHistory(w http.ResponseWriter, r *http.Request) {
	reports, err := h.boardroom.RecentMeetings(r.Context(), queryLimit(r, 20))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch meeting history")
		return
	}
	if reports == nil {
		reports = []models.MeetingReport{}
	}
	h.JSON(w, http.StatusOK, reports)
}

// AskRequest is the chat request body.
type AskRequest struct {
	Message string `json:"message"`
}

// Ask has a random agent answer the user's message.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "Message is required")
		return
	}

	result, err := h.boardroom.Ask(r.Context(), req.Message)
	if errors.Is(err, boardroom.ErrMessageRequired) {
		h.Error(w, http.StatusBadRequest, "Message is required")
		return
	}
	if err != nil {
		h.fail(w, r, err, "Failed to get response from agents")
		return
	}
	h.JSON(w, http.StatusOK, result)
}
