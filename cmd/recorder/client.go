package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/princekumarofficial/screencast-service/internal/capture"
	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/princekumarofficial/screencast-service/internal/utils/response"
)

// UploadClient posts finalized recordings to the service's /clips endpoint.
type UploadClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewUploadClient(baseURL, token string) *UploadClient {
	return &UploadClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Minute},
	}
}

type uploadResult struct {
	Clip     types.Clip `json:"clip"`
	Link     string     `json:"link"`
	Notified bool       `json:"notified"`
}

// Upload sends blob as a multipart form and returns the created record.
func (c *UploadClient) Upload(ctx context.Context, blob capture.Blob, title, visibility string) (uploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("title", title); err != nil {
		return uploadResult{}, err
	}
	if visibility != "" {
		if err := mw.WriteField("visibility", visibility); err != nil {
			return uploadResult{}, err
		}
	}
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="recording%s"`, capture.Extension(blob.ContentType))},
		"Content-Type":        {blob.ContentType},
	})
	if err != nil {
		return uploadResult{}, err
	}
	if _, err := part.Write(blob.Data); err != nil {
		return uploadResult{}, err
	}
	if err := mw.Close(); err != nil {
		return uploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/clips", &body)
	if err != nil {
		return uploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return uploadResult{}, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		response.Response
		Data uploadResult `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return uploadResult{}, err
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return uploadResult{}, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	if resp.StatusCode != http.StatusCreated {
		msg := envelope.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return envelope.Data, errors.New(msg)
	}
	return envelope.Data, nil
}
