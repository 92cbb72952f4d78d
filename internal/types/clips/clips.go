package clips

import "github.com/princekumarofficial/screencast-service/internal/types"

// UpdateClipRequest is the body of PATCH /clips/{id}
type UpdateClipRequest struct {
	Title      *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Visibility *types.Visibility `json:"visibility" validate:"omitempty,oneof=private unlisted public"`
}

// SendUploadEmailRequest is the body of POST /api/send-upload-email.
// Either FileURL or FilePath resolves the link placed in the email.
type SendUploadEmailRequest struct {
	VideoID   string `json:"video_id"`
	UserEmail string `json:"user_email"`
	FileURL   string `json:"file_url,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
}

// ProcessVideoRequest is the body of POST /functions/process-video
type ProcessVideoRequest struct {
	VideoID   string `json:"video_id"`
	UserEmail string `json:"user_email"`
	FileURL   string `json:"file_url"`
}

// ShareLinkResponse is returned by POST /clips/{id}/share
type ShareLinkResponse struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}
