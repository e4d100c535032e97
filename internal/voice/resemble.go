package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Voice is one entry from the vendor's voice catalogue.
type Voice struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ResembleClient talks to the Resemble.ai synthesis cluster and catalogue API.
type ResembleClient struct {
	baseURL   string
	voicesURL string
	apiKey    string
	http      *http.Client
}

// NewResembleClient builds a client. baseURL serves /synthesize, voicesURL
// serves the paginated /voices catalogue.
func NewResembleClient(baseURL, voicesURL, apiKey string, httpClient *http.Client) *ResembleClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ResembleClient{
		baseURL:   baseURL,
		voicesURL: voicesURL,
		apiKey:    apiKey,
		http:      httpClient,
	}
}

type synthesizeRequest struct {
	Data      string  `json:"data"`
	VoiceUUID string  `json:"voice_uuid"`
	Speed     float64 `json:"speed"`
}

// The cluster answers with one of three audio shapes depending on deployment.
type synthesizeResponse struct {
	AudioContent string `json:"audio_content,omitempty"`
	AudioURL     string `json:"audio_url,omitempty"`
	AudioData    string `json:"audio_data,omitempty"`
}

// Synthesize converts text to audio bytes using the given voice. The text may
// carry embedded voice directives; the cluster strips them before synthesis.
func (c *ResembleClient) Synthesize(ctx context.Context, text, voiceUUID string, speed float64) ([]byte, error) {
	if speed <= 0 {
		speed = 1.0
	}
	body, err := json.Marshal(synthesizeRequest{Data: text, VoiceUUID: voiceUUID, Speed: speed})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("synthesis returned %d: %s", resp.StatusCode, truncateForLog(data))
	}

	var out synthesizeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode synthesis response: %w", err)
	}

	switch {
	case out.AudioContent != "":
		return base64.StdEncoding.DecodeString(out.AudioContent)
	case out.AudioData != "":
		return base64.StdEncoding.DecodeString(out.AudioData)
	case out.AudioURL != "":
		return c.download(ctx, out.AudioURL)
	}
	return nil, fmt.Errorf("synthesis response carried no audio")
}

func (c *ResembleClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("audio download returned %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 64<<20))
}

type voicesPage struct {
	Items []Voice `json:"items"`
}

// ListVoices fetches the full voice catalogue, walking the paginated API.
// The catalogue endpoint uses Token auth, unlike the synthesis cluster.
func (c *ResembleClient) ListVoices(ctx context.Context) ([]Voice, error) {
	const pageSize = 100
	var all []Voice
	for page := 1; ; page++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/voices?page=%d&page_size=%d", c.voicesURL, page, pageSize), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Token "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("voice catalogue request: %w", err)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("voice catalogue returned %d", resp.StatusCode)
		}

		var out voicesPage
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode voice catalogue: %w", err)
		}
		all = append(all, out.Items...)
		if len(out.Items) < pageSize {
			return all, nil
		}
	}
}

func truncateForLog(data []byte) string {
	const max = 200
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}
