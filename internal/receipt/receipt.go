package receipt

// UncategorizedType is the sentinel category the capture client attaches
// to receipts created from a photo before the user files them.
const UncategorizedType = 999

// Receipt represents one captured purchase. Every receipt lives under the
// namespace of exactly one user and is only reachable through it.
type Receipt struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Invoice     string  `json:"invoice"`
	Description string  `json:"description"`
	TypeID      int     `json:"typeId"`
}

// UploadResult is what the upload pipeline reports back: the public URL of
// the stored image and an amount, extracted if possible.
type UploadResult struct {
	Amount  float64 `json:"amount"`
	FileURL string  `json:"fileUrl"`
}
