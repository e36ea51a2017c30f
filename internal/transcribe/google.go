package transcribe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/vid2txt/internal/apierr"
	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/lang"
)

// Google Web Speech API v2 settings.
const (
	// GoogleSpeechURL is the Web Speech API v2 recognition endpoint.
	GoogleSpeechURL = "https://www.google.com/speech-api/v2/recognize"

	// googleClient identifies the caller to the endpoint.
	googleClient = "chromium"

	// googleRequestTimeout bounds one window's request.
	googleRequestTimeout = 60 * time.Second

	// maxGoogleResponse bounds the response body read into memory.
	maxGoogleResponse = 1 << 20
)

// httpDoer abstracts the HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GoogleRecognizer recognizes clips with the Google Web Speech API v2.
// Audio is sent as raw "audio/l16" PCM, the language as a full locale tag.
type GoogleRecognizer struct {
	httpClient httpDoer
	endpoint   string
	apiKey     string
}

// GoogleOption configures a GoogleRecognizer.
type GoogleOption func(*GoogleRecognizer)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c httpDoer) GoogleOption {
	return func(r *GoogleRecognizer) { r.httpClient = c }
}

// WithEndpoint overrides the recognition URL (for testing).
func WithEndpoint(endpoint string) GoogleOption {
	return func(r *GoogleRecognizer) { r.endpoint = endpoint }
}

// NewGoogleRecognizer creates a recognizer authenticated with apiKey.
func NewGoogleRecognizer(apiKey string, opts ...GoogleOption) *GoogleRecognizer {
	r := &GoogleRecognizer{
		httpClient: &http.Client{Timeout: googleRequestTimeout},
		endpoint:   GoogleSpeechURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize posts the clip and returns the first alternative of the first
// non-empty result.
func (r *GoogleRecognizer) Recognize(ctx context.Context, clip audio.Clip, language lang.Language) (string, error) {
	pcm, err := clip.L16()
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client", googleClient)
	q.Set("lang", language.OrDefault().String())
	q.Set("key", r.apiKey)
	q.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"?"+q.Encode(), bytes.NewReader(pcm))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/l16; rate="+strconv.Itoa(clip.Format.SampleRate))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
		}
		return "", fmt.Errorf("speech request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGoogleResponse))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apierr.FromStatus(resp.StatusCode, googleErrorMessage(body))
	}

	return parseGoogleResponse(body)
}

// googleResponse is one JSON line of a Web Speech API v2 response.
type googleResponse struct {
	Result []struct {
		Alternative []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternative"`
		Final bool `json:"final"`
	} `json:"result"`
	ResultIndex int `json:"result_index"`
}

// parseGoogleResponse reads the newline-delimited JSON body. The endpoint
// usually sends an empty {"result":[]} line before the real hypothesis.
func parseGoogleResponse(body []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), maxGoogleResponse)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var r googleResponse
		if err := json.Unmarshal(line, &r); err != nil {
			return "", fmt.Errorf("parse response: %w", err)
		}
		if len(r.Result) == 0 || len(r.Result[0].Alternative) == 0 {
			continue
		}
		text := strings.TrimSpace(r.Result[0].Alternative[0].Transcript)
		if text == "" {
			return "", ErrNoSpeech
		}
		return text, nil
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return "", ErrNoSpeech
}

// googleErrorMessage extracts a readable message from an error body, which
// is either a Google API JSON error or an HTML page.
func googleErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}
