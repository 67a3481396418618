package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultVisionServerURL = "http://localhost:8000"

// VisionServer classifies images against a local inference server
// (e.g. a CLIP or MobileNet service on localhost). Photo pixels never leave
// the machine.
type VisionServer struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewVisionServer creates a vision server client.
func NewVisionServer(baseURL, model string) *VisionServer {
	if baseURL == "" {
		baseURL = defaultVisionServerURL
	}
	return &VisionServer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the provider name for logging
func (v *VisionServer) Name() string {
	return "vision-server"
}

// classifyResponse represents the response from the classification endpoint
type classifyResponse struct {
	Labels []Label `json:"labels"`
	Model  string  `json:"model"`
}

// Classify posts the image to the local server and returns its labels.
func (v *VisionServer) Classify(ctx context.Context, img image.Image) ([]Label, error) {
	var imgBuf bytes.Buffer
	if err := jpeg.Encode(&imgBuf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imgBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/classify", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var clsResp classifyResponse
	if err := json.Unmarshal(body, &clsResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return clsResp.Labels, nil
}
