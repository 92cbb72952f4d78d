// Package notify exposes the upload email endpoint and the processing
// function over HTTP. Both answer 400 for request validation failures and 500
// for everything else.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/princekumarofficial/screencast-service/internal/apperr"
	notifyService "github.com/princekumarofficial/screencast-service/internal/services/notify"
	clipTypes "github.com/princekumarofficial/screencast-service/internal/types/clips"
	"github.com/princekumarofficial/screencast-service/internal/utils/response"
)

var errInvalidBody = errors.New("Invalid request body")

// Notifier is implemented by notify.Service.
type Notifier interface {
	Trigger(ctx context.Context, req notifyService.Request) (notifyService.Result, error)
	Process(ctx context.Context, req notifyService.Request) (notifyService.Result, error)
}

// SendUploadEmail marks a clip completed and emails its owner
// @Summary Send the upload complete email
// @Description Marks the video completed, then emails a link to the owner. A failed email does not revert the status.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body clipTypes.SendUploadEmailRequest true "Video and recipient"
// @Success 200 {object} response.Response "Email sent successfully"
// @Failure 400 {object} response.Response "Missing fields"
// @Failure 500 {object} response.Response "Configuration, store or email failure"
// @Router /api/send-upload-email [post]
func SendUploadEmail(n Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clipTypes.SendUploadEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidBody))
			return
		}

		_, err := n.Trigger(r.Context(), notifyService.Request{
			VideoID:    req.VideoID,
			OwnerEmail: req.UserEmail,
			FileURL:    req.FileURL,
			FilePath:   req.FilePath,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Email sent successfully", nil))
	}
}

// ProcessVideo transcodes a clip when enabled, marks it completed and emails its owner
// @Summary Process an uploaded video
// @Description Optional transcode-and-replace, then status update and "video is ready" email. A transcode failure leaves the prior status.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body clipTypes.ProcessVideoRequest true "Video and recipient"
// @Success 200 {object} response.Response "Video processed and email sent."
// @Failure 400 {object} response.Response "Missing fields"
// @Failure 500 {object} response.Response "Processing failure"
// @Router /functions/process-video [post]
func ProcessVideo(n Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clipTypes.ProcessVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidBody))
			return
		}

		_, err := n.Process(r.Context(), notifyService.Request{
			VideoID:    req.VideoID,
			OwnerEmail: req.UserEmail,
			FileURL:    req.FileURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Video processed and email sent.", nil))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if apperr.Is(err, apperr.KindValidation) {
		status = http.StatusBadRequest
	}
	response.WriteJSON(w, status, response.GeneralError(err))
}
