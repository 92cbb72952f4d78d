package clips

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/screencast-service/internal/apperr"
	"github.com/princekumarofficial/screencast-service/internal/http/middleware"
	clipService "github.com/princekumarofficial/screencast-service/internal/services/clips"
	"github.com/princekumarofficial/screencast-service/internal/services/media"
	"github.com/princekumarofficial/screencast-service/internal/types"
	clipTypes "github.com/princekumarofficial/screencast-service/internal/types/clips"
	"github.com/princekumarofficial/screencast-service/internal/utils/response"
	"github.com/princekumarofficial/screencast-service/internal/workflow"
)

// multipart overhead allowed on top of the clip itself
const formOverhead = 1 << 20

var validate = validator.New()

type ClipHandlers struct {
	workflow    *workflow.Coordinator
	clips       *clipService.Service
	siteURL     func() (string, error)
	maxFileSize int64
}

// NewClipHandlers creates the dashboard handlers. siteURL resolves the
// public site base at request time.
func NewClipHandlers(coordinator *workflow.Coordinator, clips *clipService.Service, siteURL func() (string, error), maxFileSize int64) *ClipHandlers {
	return &ClipHandlers{
		workflow:    coordinator,
		clips:       clips,
		siteURL:     siteURL,
		maxFileSize: maxFileSize,
	}
}

type UploadResponse struct {
	Clip     types.Clip `json:"clip"`
	Link     string     `json:"link,omitempty"`
	Notified bool       `json:"notified"`
}

// Upload stores a finished recording, creates its record and emails the owner
// @Summary Upload a recording
// @Description Upload a finalized clip, create its record and send the upload email
// @Tags clips
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Recorded clip"
// @Param title formData string true "Clip title"
// @Param visibility formData string false "private, unlisted or public"
// @Success 201 {object} UploadResponse "Clip uploaded"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 413 {object} response.Response "Clip too large"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /clips [post]
func (h *ClipHandlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}
		email, _ := middleware.GetUserEmailFromContext(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+formOverhead)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.WriteJSON(w, http.StatusRequestEntityTooLarge, response.GeneralError(errors.New("clip exceeds the maximum upload size")))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid multipart form")))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("file is required")))
			return
		}
		defer file.Close()

		out, err := h.workflow.Run(r.Context(), workflow.Input{
			OwnerID:       userID,
			OwnerEmail:    email,
			Title:         r.FormValue("title"),
			Visibility:    types.Visibility(strings.TrimSpace(r.FormValue("visibility"))),
			SuggestedName: header.Filename,
			Blob: media.Blob{
				Reader:      file,
				Size:        header.Size,
				ContentType: header.Header.Get("Content-Type"),
			},
		})
		if err != nil {
			resp := response.GeneralError(err)
			if out.Clip.ID != "" {
				// the record exists and stays pending
				resp.Data = UploadResponse{Clip: out.Clip}
			}
			response.WriteJSON(w, apperr.HTTPStatus(err), resp)
			return
		}

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Clip uploaded successfully", UploadResponse{
			Clip:     out.Clip,
			Link:     out.Link,
			Notified: out.Notified,
		}))
	}
}

// List returns the caller's clips
// @Summary List own clips
// @Tags clips
// @Produce json
// @Success 200 {array} types.Clip "Clips retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /clips [get]
func (h *ClipHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		list, err := h.clips.List(r.Context(), userID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Clips retrieved successfully", list))
	}
}

// Get returns one of the caller's clips
// @Summary Get a clip
// @Tags clips
// @Produce json
// @Param id path string true "Clip ID"
// @Success 200 {object} types.Clip "Clip retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Clip not found"
// @Security BearerAuth
// @Router /clips/{id} [get]
func (h *ClipHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		clip, err := h.clips.Get(r.Context(), userID, r.PathValue("id"))
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Clip retrieved successfully", clip))
	}
}

// Update renames a clip or changes its visibility
// @Summary Update a clip
// @Tags clips
// @Accept json
// @Produce json
// @Param id path string true "Clip ID"
// @Param request body clipTypes.UpdateClipRequest true "Fields to change"
// @Success 200 {object} types.Clip "Clip updated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Clip not found"
// @Security BearerAuth
// @Router /clips/{id} [patch]
func (h *ClipHandlers) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		var req clipTypes.UpdateClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}
		if err := validate.Struct(req); err != nil {
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		clip, err := h.clips.Update(r.Context(), userID, r.PathValue("id"), types.ClipPatch{
			Title:      req.Title,
			Visibility: req.Visibility,
		})
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Clip updated successfully", clip))
	}
}

// Delete removes a clip's object and record
// @Summary Delete a clip
// @Tags clips
// @Param id path string true "Clip ID"
// @Success 200 {object} response.Response "Clip deleted successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the owner"
// @Failure 404 {object} response.Response "Clip not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /clips/{id} [delete]
func (h *ClipHandlers) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		if err := h.clips.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Clip deleted successfully", nil))
	}
}

// Share returns a viewable link for a public or unlisted clip
// @Summary Create a share link
// @Description Public clips get their object URL, unlisted clips a link valid for one hour
// @Tags clips
// @Produce json
// @Param id path string true "Clip ID"
// @Success 200 {object} clipTypes.ShareLinkResponse "Share link created"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Clip is private or not owned"
// @Failure 404 {object} response.Response "Clip not found"
// @Security BearerAuth
// @Router /clips/{id}/share [post]
func (h *ClipHandlers) Share() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		link, err := h.clips.Share(r.Context(), userID, r.PathValue("id"))
		if err != nil {
			response.WriteError(w, err)
			return
		}

		resp := clipTypes.ShareLinkResponse{URL: link.URL}
		if !link.ExpiresAt.IsZero() {
			resp.ExpiresAt = link.ExpiresAt.Unix()
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Share link created", resp))
	}
}

// EmbedCode returns an iframe snippet for the clip
// @Summary Get embed code
// @Tags clips
// @Produce json
// @Param id path string true "Clip ID"
// @Success 200 {object} map[string]string "Embed code"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Clip is private or not owned"
// @Failure 404 {object} response.Response "Clip not found"
// @Failure 500 {object} response.Response "Site URL configuration missing"
// @Security BearerAuth
// @Router /clips/{id}/embed-code [get]
func (h *ClipHandlers) EmbedCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.GetUserIDFromContext(r.Context())

		site, err := h.siteURL()
		if err != nil {
			slog.Error("embed code requested without site URL", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		code, err := h.clips.EmbedCode(r.Context(), userID, r.PathValue("id"), site)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Embed code created", map[string]string{
			"embed_code": code,
		}))
	}
}
