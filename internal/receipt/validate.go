package receipt

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// receiptSchema checks field types only. Values are deliberately left
// unconstrained: the client owns the date format and category numbering.
const receiptSchema = `{
	"type": "object",
	"properties": {
		"date": {"type": "string"},
		"amount": {"type": "number"},
		"invoice": {"type": "string"},
		"description": {"type": "string"},
		"typeId": {"type": "integer"}
	}
}`

var compiledReceiptSchema = jsonschema.MustCompileString("receipt.json", receiptSchema)

// DecodeReceipt validates a receipt-shaped JSON body against the schema
// and decodes it. Unknown fields are ignored; missing fields take their
// zero values.
func DecodeReceipt(body []byte) (*Receipt, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := compiledReceiptSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("invalid receipt: %w", err)
	}

	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, fmt.Errorf("decoding receipt: %w", err)
	}
	return &receipt, nil
}
