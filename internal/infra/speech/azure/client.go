package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/vantage/internal/domain/apperr"
	"github.com/bryanwahyu/vantage/internal/domain/speech"
)

const (
	endpointTemplate    = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	defaultOutputFormat = "audio-16khz-32kbitrate-mono-mp3"
	userAgent           = "vantage-tts"
)

// Client calls the Azure Cognitive Services text-to-speech REST API.
// Implements speech.Synthesizer.
type Client struct {
	key          string
	endpoint     string
	outputFormat string
	client       *http.Client
}

// Options for NewClient. Endpoint overrides the region-derived URL.
type Options struct {
	Key          string
	Region       string
	Endpoint     string
	OutputFormat string
	Timeout      time.Duration
}

// NewClient returns a client, or a configuration error when the key or region is missing.
func NewClient(o Options) (*Client, error) {
	if o.Key == "" || (o.Region == "" && o.Endpoint == "") {
		return nil, apperr.Configuration("Azure TTS credentials not configured")
	}
	endpoint := o.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(endpointTemplate, o.Region)
	}
	if o.OutputFormat == "" {
		o.OutputFormat = defaultOutputFormat
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return &Client{
		key:          o.Key,
		endpoint:     endpoint,
		outputFormat: o.OutputFormat,
		client:       &http.Client{Timeout: o.Timeout},
	}, nil
}

// Synthesize posts an SSML document and returns the audio bytes.
func (c *Client) Synthesize(ctx context.Context, req speech.Request) (*speech.Audio, error) {
	ssml, err := SSML(req.Voice, req.Text)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", c.outputFormat)
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Upstream("Azure TTS request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream("Azure TTS read failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.UpstreamStatus(resp.StatusCode, fmt.Sprintf("Azure TTS Error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "audio/mpeg"
	}
	return &speech.Audio{Data: body, ContentType: ct}, nil
}

// SSML builds the speak envelope with the text XML-escaped.
func SSML(v speech.Voice, text string) (string, error) {
	body, err := escape(text)
	if err != nil {
		return "", fmt.Errorf("escape text: %w", err)
	}
	lang, err := escape(v.Lang)
	if err != nil {
		return "", err
	}
	name, err := escape(v.Name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>", lang, name, body), nil
}

func escape(s string) (string, error) {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}
