// Package tts synthesizes speech through the Google Cloud Text-to-Speech
// REST API.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const synthesizeURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

const (
	// LINEAR16 at a fixed rate lets the audio duration be computed from the
	// payload size without decoding.
	sampleRateHertz = 24000
	wavHeaderBytes  = 44
	bytesPerSample  = 2
)

// Speech is one synthesized utterance.
type Speech struct {
	Audio    []byte
	Duration float64
}

// Client calls the Google TTS REST API.
type Client struct {
	HTTPClient *http.Client
	APIKey     string
	Voice      string
}

func NewClient(apiKey, voice string) *Client {
	return &Client{
		HTTPClient: http.DefaultClient,
		APIKey:     apiKey,
		Voice:      voice,
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding   string `json:"audioEncoding"`
		SampleRateHertz int    `json:"sampleRateHertz"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize converts text to LINEAR16 speech audio.
func (c *Client) Synthesize(ctx context.Context, text string) (Speech, error) {
	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = "en-US"
	reqBody.Voice.Name = c.Voice
	reqBody.AudioConfig.AudioEncoding = "LINEAR16"
	reqBody.AudioConfig.SampleRateHertz = sampleRateHertz

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Speech{}, fmt.Errorf("error marshaling TTS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, synthesizeURL+"?key="+c.APIKey, bytes.NewReader(payload))
	if err != nil {
		return Speech{}, fmt.Errorf("error creating TTS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Speech{}, fmt.Errorf("error calling TTS API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Speech{}, fmt.Errorf("error reading TTS response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Speech{}, fmt.Errorf("TTS API returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded synthesizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Speech{}, fmt.Errorf("error decoding TTS response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return Speech{}, fmt.Errorf("error decoding TTS audio content: %w", err)
	}

	return Speech{Audio: audio, Duration: pcmDuration(audio)}, nil
}

// pcmDuration derives playback length from the WAV payload size.
func pcmDuration(audio []byte) float64 {
	if len(audio) <= wavHeaderBytes {
		return 0
	}
	samples := (len(audio) - wavHeaderBytes) / bytesPerSample
	return float64(samples) / float64(sampleRateHertz)
}
