package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PubMedScanner/internal/config"
	"PubMedScanner/internal/ports"
)

const (
	// SummaryBullets is the fixed digest size every summary is
	// normalized to.
	SummaryBullets = 4

	// minAbstractChars is the threshold below which an abstract is not
	// worth a model call.
	minAbstractChars = 50

	// abstractCap bounds the prompt size.
	abstractCap = 8000

	bulletPrefix = "- "
	fillerBullet = "- See the abstract for further details"
)

// noAbstractSummary is returned without calling the model when the
// abstract is missing or too short to summarize.
var noAbstractSummary = []string{
	"- No abstract is available for this article",
	"- The source record did not include summarizable text",
	"- Follow the PubMed link for the full record",
	"- Check the journal site for the complete article",
}

// GeminiClient implements ports.Summarizer on the Gemini generateContent API.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	prompt     string
	httpClient *http.Client
}

var _ ports.Summarizer = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		prompt:   cfg.Prompt,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Summarize condenses the abstract into exactly SummaryBullets bullet
// strings. Abstracts below the minimum length short-circuit to a fixed
// message; model or transport failures surface as errors for the caller
// to substitute its fallback.
func (c *GeminiClient) Summarize(ctx context.Context, title, abstract string) ([]string, error) {
	abstract = strings.TrimSpace(abstract)
	if len(abstract) < minAbstractChars {
		return noAbstractSummary, nil
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return nil, fmt.Errorf("gemini client misconfigured")
	}

	if len(abstract) > abstractCap {
		abstract = abstract[:abstractCap]
	}

	text, err := c.generate(ctx, buildPrompt(c.prompt, title, abstract))
	if err != nil {
		return nil, err
	}

	return normalizeBullets(text), nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.endpoint, c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func buildPrompt(instruction, title, abstract string) string {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = "Summarize the key points of the following medical article abstract in exactly 4 bullet points, each starting with \"- \"."
	}

	return fmt.Sprintf("%s\n\nTitle: %s\n\nAbstract:\n%s", instruction, title, abstract)
}

// normalizeBullets extracts bullet lines from the model output and pads
// or trims them to exactly SummaryBullets entries.
func normalizeBullets(text string) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, bulletPrefix):
			bullets = append(bullets, line)
		case strings.HasPrefix(line, "• "):
			bullets = append(bullets, bulletPrefix+strings.TrimPrefix(line, "• "))
		case strings.HasPrefix(line, "* "):
			bullets = append(bullets, bulletPrefix+strings.TrimPrefix(line, "* "))
		}
		if len(bullets) == SummaryBullets {
			break
		}
	}

	for len(bullets) < SummaryBullets {
		bullets = append(bullets, fillerBullet)
	}

	return bullets
}
