package extraction

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// amountPrompt is the prompt used to extract the total from a receipt image.
const amountPrompt = `You are analyzing a receipt or invoice image. Find the final total, grand total, or amount due. This is usually at the bottom of the receipt, often labeled as "TOTAL", "Amount Due", "Grand Total", or similar. Extract only the numeric value (e.g., 42.75 for $42.75).

Return ONLY valid JSON in this exact format:
{
  "amount": 0.00
}

Important:
- The amount must be a number (not a string), representing dollars and cents
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// maxFetchBytes bounds how much of a published image is read back for
// extraction; uploads themselves are capped well below this.
const maxFetchBytes = 20 << 20

// Gemini implements the Extractor interface using Google Gemini. Gemini
// takes raw bytes rather than a URL, so the published image is fetched
// first and converted to PNG.
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	fetcher *http.Client
}

// NewGemini creates a new Gemini Extractor instance.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   client.GenerativeModel(modelName),
		fetcher: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Extract fetches the published image and asks Gemini for the total amount.
func (g *Gemini) Extract(ctx context.Context, imageURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	data, contentType, err := g.fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	pngData, err := toPNG(data, contentType)
	if err != nil {
		return nil, err
	}

	// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
	parts := []genai.Part{
		genai.ImageData("png", pngData),
		genai.Text(amountPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	result, err := parseAmountJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing gemini response: %w", err)
	}
	return result, nil
}

// fetch retrieves the published image over HTTP.
func (g *Gemini) fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating fetch request: %w", err)
	}

	resp, err := g.fetcher.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
