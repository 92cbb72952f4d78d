package clips

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/princekumarofficial/screencast-service/internal/apperr"
	"github.com/princekumarofficial/screencast-service/internal/types"
)

var ErrPrivate = errors.New("This video is private. Make it public or unlisted to share.")

// Link is a viewable URL for a clip. ExpiresAt is zero for durable links.
type Link struct {
	URL       string
	ExpiresAt time.Time
}

// Share produces a link for the caller's clip.
func (s *Service) Share(ctx context.Context, callerID, id string) (Link, error) {
	clip, err := s.Get(ctx, callerID, id)
	if err != nil {
		return Link{}, err
	}
	return s.ViewableLink(ctx, clip)
}

// ViewableLink resolves the stored path to a playable URL. Visibility is
// checked before any URL is built: public clips get the durable object URL,
// unlisted clips a presigned one, private clips nothing.
func (s *Service) ViewableLink(ctx context.Context, clip types.Clip) (Link, error) {
	const op = "clips.ViewableLink"

	switch clip.Visibility {
	case types.VisibilityPublic:
		return Link{URL: s.media.PublicURL(clip.StorageReference)}, nil
	case types.VisibilityUnlisted:
		u, expires, err := s.media.SignedURL(ctx, clip.StorageReference)
		if err != nil {
			return Link{}, apperr.E(apperr.KindStorage, op, err)
		}
		return Link{URL: u, ExpiresAt: expires}, nil
	}
	return Link{}, apperr.E(apperr.KindForbidden, op, ErrPrivate)
}

// EmbedCode returns an iframe snippet pointing at the embed page.
func (s *Service) EmbedCode(ctx context.Context, callerID, id, siteURL string) (string, error) {
	clip, err := s.Get(ctx, callerID, id)
	if err != nil {
		return "", err
	}
	if !clip.Visibility.Shareable() {
		return "", apperr.E(apperr.KindForbidden, "clips.EmbedCode", ErrPrivate)
	}

	src := fmt.Sprintf("%s/embed/%s", siteURL, clip.ID)
	return fmt.Sprintf(
		`<iframe src="%s" width="640" height="360" frameborder="0" allow="autoplay; fullscreen" allowfullscreen title="%s"></iframe>`,
		html.EscapeString(src), html.EscapeString(clip.Title),
	), nil
}

// ShortLink is the public short URL of a clip.
func ShortLink(siteURL string, clip types.Clip) string {
	return fmt.Sprintf("%s/v/%s", siteURL, clip.ShortID)
}

// DashboardLink is where an owner finds their private clips.
func DashboardLink(siteURL string) string {
	return siteURL + "/dashboard"
}
