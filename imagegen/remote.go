package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	openai "github.com/sashabaranov/go-openai"
)

// RemotePipeline generates images through an OpenAI-compatible image API
// instead of local weights. Selected when AMFBOT_IMAGE_API_URL is set.
//
// Remote generation cannot honor seeds; reproducibility is a property of the
// local pipeline only.
type RemotePipeline struct {
	client *openai.Client
	model  string
}

// RemoteConfig configures a RemotePipeline.
type RemoteConfig struct {
	// BaseURL is the API endpoint (required).
	BaseURL string
	// APIKey authenticates requests (required by most endpoints).
	APIKey string
	// Model is the image model name. Empty uses the endpoint default.
	Model string
}

// NewRemotePipeline creates a pipeline backed by a remote image API.
func NewRemotePipeline(cfg RemoteConfig) (*RemotePipeline, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: remote image API URL is required", ErrLoadFailed)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &RemotePipeline{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}, nil
}

// RemoteFactory returns a PipelineFactory that always produces remote
// pipelines for the given endpoint, ignoring local weights entirely.
func RemoteFactory(cfg RemoteConfig) PipelineFactory {
	return func(variant, weightsDir, device, dtype string) (Pipeline, error) {
		return NewRemotePipeline(cfg)
	}
}

// Render requests base64-encoded images from the remote API and decodes
// them.
func (p *RemotePipeline) Render(ctx context.Context, req RenderRequest) ([]image.Image, error) {
	apiReq := openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          p.model,
		N:              req.NumImages,
		Size:           fmt.Sprintf("%dx%d", req.Width, req.Height),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}

	resp, err := p.client.CreateImage(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("%w: remote API call failed: %v", ErrGenerationFailed, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: remote API returned no images", ErrGenerationFailed)
	}

	out := make([]image.Image, 0, len(resp.Data))
	for i, item := range resp.Data {
		raw, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: image %d is not valid base64: %v", ErrGenerationFailed, i, err)
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: image %d failed to decode: %v", ErrGenerationFailed, i, err)
		}
		out = append(out, img)
	}
	return out, nil
}

// Close is a no-op; the remote client holds no local resources.
func (p *RemotePipeline) Close() error {
	return nil
}
