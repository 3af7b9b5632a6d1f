package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultOCRBaseURL = "https://api.ocr.space"

// OCRClient implements the Extractor interface against an OCR.space-style
// HTTP API. The API fetches the image itself, so only the public URL is
// sent, never the image bytes.
type OCRClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOCRClient creates a new OCR Extractor instance.
func NewOCRClient(baseURL, apiKey string) (*OCRClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ocr api key is required")
	}
	if baseURL == "" {
		baseURL = defaultOCRBaseURL
	}

	return &OCRClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// ocrParseResponse represents the response from the OCR parse API.
type ocrParseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// Extract submits the image URL to the OCR API and parses a total amount
// out of the recognized text.
func (o *OCRClient) Extract(ctx context.Context, imageURL string) (*Result, error) {
	form := url.Values{}
	form.Set("apikey", o.apiKey)
	form.Set("url", imageURL)
	form.Set("OCREngine", "2")
	form.Set("scale", "true")

	endpoint := fmt.Sprintf("%s/parse/image", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ocr API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ocr API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed ocrParseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if parsed.IsErroredOnProcessing {
		// ErrorMessage is a string or an array of strings depending on the failure
		return nil, fmt.Errorf("ocr processing failed: %s", string(parsed.ErrorMessage))
	}
	if len(parsed.ParsedResults) == 0 {
		return nil, fmt.Errorf("no parse results in response")
	}

	text := parsed.ParsedResults[0].ParsedText
	amount, err := parseAmount(text)
	if err != nil {
		return nil, fmt.Errorf("parsing amount: %w", err)
	}

	return &Result{Amount: amount, Text: text}, nil
}

// Close closes the OCR client (no-op for HTTP client)
func (o *OCRClient) Close() error {
	return nil
}
