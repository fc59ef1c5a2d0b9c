package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkdesk/storefront/internal/circuitbreaker"
	"github.com/rs/zerolog"
)

var ErrNotConfigured = errors.New("media host is not configured")

type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// HTTPUploader talks to the media host's REST API.
type HTTPUploader struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *circuitbreaker.Breaker
}

func NewHTTPUploader(baseURL, apiKey string, log zerolog.Logger) *HTTPUploader {
	return &HTTPUploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: circuitbreaker.New("media", breakerSettings(), log),
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, filename string, r io.Reader) (Asset, error) {
	if u.baseURL == "" {
		return Asset{}, ErrNotConfigured
	}

	// Buffered so the breaker can run the request as a single call.
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Asset{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return Asset{}, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Asset{}, fmt.Errorf("close multipart: %w", err)
	}

	var asset Asset
	err = u.breaker.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload", bytes.NewReader(body.Bytes()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		u.authorize(req)

		resp, err := u.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return statusError(resp)
		}
		return json.NewDecoder(resp.Body).Decode(&asset)
	})
	if err != nil {
		return Asset{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	if asset.URL == "" || asset.PublicID == "" {
		return Asset{}, fmt.Errorf("upload %s: media host returned incomplete asset", filename)
	}
	return asset, nil
}

// Delete removes an asset. A missing asset is not an error.
func (u *HTTPUploader) Delete(ctx context.Context, publicID string) error {
	if u.baseURL == "" {
		return ErrNotConfigured
	}
	if publicID == "" {
		return nil
	}

	err := u.breaker.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.baseURL+"/assets/"+url.PathEscape(publicID), nil)
		if err != nil {
			return err
		}
		u.authorize(req)

		resp, err := u.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
			return nil
		}
		return statusError(resp)
	})
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", publicID, err)
	}
	return nil
}

func (u *HTTPUploader) authorize(req *http.Request) {
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}
}

// StatusError is a non-success response from the media host.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("media host responded %d: %s", e.Code, e.Body)
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
}

// breakerSettings keeps 4xx responses out of the failure count: a rejected
// file says nothing about the host's health.
func breakerSettings() circuitbreaker.Settings {
	s := circuitbreaker.DefaultSettings()
	s.IsSuccessful = func(err error) bool {
		var se *StatusError
		return err == nil || (errors.As(err, &se) && se.Code >= 400 && se.Code < 500)
	}
	return s
}
