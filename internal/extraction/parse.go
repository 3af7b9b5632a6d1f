package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches currency-looking numbers like 42.75, 1,234.56,
// 1234.56 or 12,50. The grouped form is tried first so a thousands
// separator is never mistaken for a decimal point.
var amountPattern = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{2}`)

// totalKeywords mark the lines most likely to carry the final amount.
var totalKeywords = []string{"grand total", "amount due", "total"}

// parseAmount extracts the total amount from recognized receipt text.
// It prefers numbers on lines mentioning a total; failing that it falls
// back to the largest currency-looking number anywhere in the text, since
// the grand total is normally the largest figure on a receipt.
func parseAmount(text string) (float64, error) {
	lines := strings.Split(text, "\n")

	for _, keyword := range totalKeywords {
		for _, line := range lines {
			lower := strings.ToLower(line)
			if !strings.Contains(lower, keyword) {
				continue
			}
			// "subtotal" contains "total" but is never the final amount
			if keyword == "total" && strings.Contains(lower, "subtotal") {
				continue
			}
			if m := amountPattern.FindString(line); m != "" {
				return parseNumber(m)
			}
		}
	}

	var best float64
	found := false
	for _, m := range amountPattern.FindAllString(text, -1) {
		n, err := parseNumber(m)
		if err != nil {
			continue
		}
		if !found || n > best {
			best = n
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("no amount found in text")
	}
	return best, nil
}

// parseNumber normalizes thousands separators and decimal commas.
func parseNumber(s string) (float64, error) {
	// The last separator is the decimal point; everything before it groups thousands.
	idx := strings.LastIndexAny(s, ".,")
	intPart := s[:idx]
	fracPart := s[idx+1:]
	intPart = strings.NewReplacer(",", "", ".", "").Replace(intPart)

	n, err := strconv.ParseFloat(intPart+"."+fracPart, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", s, err)
	}
	return n, nil
}

// parseAmountJSON parses the JSON reply from an LLM extractor.
func parseAmountJSON(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	if result.Amount <= 0 {
		return nil, fmt.Errorf("no amount in response")
	}
	return &result, nil
}
