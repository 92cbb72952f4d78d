// Package viewer serves the public pages behind short links and embeds.
package viewer

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/screencast-service/internal/apperr"
	clipService "github.com/princekumarofficial/screencast-service/internal/services/clips"
	"github.com/princekumarofficial/screencast-service/internal/utils/response"
)

var embedPage = template.Must(template.New("embed").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>html,body{margin:0;height:100%;background:#000}video{width:100%;height:100%}</style>
</head>
<body>
{{if .Private}}<p style="color:#fff;font-family:sans-serif;text-align:center;margin-top:40vh">This video is private.</p>
{{else}}<video src="{{.Source}}" controls playsinline></video>
{{end}}</body>
</html>
`))

type embedData struct {
	Title   string
	Source  string
	Private bool
}

// ShortLink redirects a short link to the clip's viewable URL
// @Summary Open a short link
// @Tags viewer
// @Param short_id path string true "Short ID"
// @Success 302 "Redirect to the video"
// @Failure 403 {object} response.Response "Video is private"
// @Failure 404 {object} response.Response "Video not found"
// @Router /v/{short_id} [get]
func ShortLink(clips *clipService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := clips.LookupShort(r.Context(), r.PathValue("short_id"))
		if err != nil {
			response.WriteError(w, err)
			return
		}

		link, err := clips.ViewableLink(r.Context(), clip)
		if err != nil {
			if !apperr.Is(err, apperr.KindForbidden) {
				slog.Error("failed to resolve short link",
					slog.String("short_id", clip.ShortID),
					slog.String("error", err.Error()))
			}
			response.WriteError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, link.URL, http.StatusFound)
	}
}

// Embed renders a bare video player for iframes
// @Summary Embedded player
// @Tags viewer
// @Produce html
// @Param id path string true "Clip ID"
// @Success 200 {string} string "Player page"
// @Failure 403 {string} string "Video is private"
// @Failure 404 {object} response.Response "Video not found"
// @Router /embed/{id} [get]
func Embed(clips *clipService.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, err := clips.Lookup(r.Context(), r.PathValue("id"))
		if err != nil {
			response.WriteError(w, err)
			return
		}

		data := embedData{Title: clip.Title}
		status := http.StatusOK

		link, err := clips.ViewableLink(r.Context(), clip)
		switch {
		case apperr.Is(err, apperr.KindForbidden):
			data.Private = true
			status = http.StatusForbidden
		case err != nil:
			slog.Error("failed to resolve embed source",
				slog.String("clip_id", clip.ID),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		default:
			data.Source = link.URL
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := embedPage.Execute(w, data); err != nil {
			slog.Error("failed to render embed page", slog.String("error", err.Error()))
		}
	}
}
