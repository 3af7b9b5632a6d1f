package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/receipt-vault/internal/extraction"
	"github.com/zombor/receipt-vault/internal/storage"
)

// placeholderAmount is the fallback reported when extraction is
// unavailable or fails. The upload still succeeds; the client lets the
// user correct the amount before filing the receipt.
const placeholderAmount = 11.4

// ErrUpstream marks object-store failures in the upload pipeline. These
// are transient cloud failures, distinct from bad input, and callers map
// them to a retryable 5xx.
var ErrUpstream = errors.New("upstream storage failure")

// IDGenerator generates unique IDs for receipts and stored objects
type IDGenerator interface {
	Generate() string
}

// receiptIDGenerator generates fixed-width timestamp IDs. Zero-padding
// keeps bbolt's key order equal to insertion order.
type receiptIDGenerator struct{}

func (g *receiptIDGenerator) Generate() string {
	return fmt.Sprintf("%020d", time.Now().UnixNano())
}

// objectNameGenerator generates random object names. Names never derive
// from the client-supplied filename, so collisions and path tricks are out.
type objectNameGenerator struct{}

func (g *objectNameGenerator) Generate() string {
	return uuid.New().String()
}

// Service handles receipt operations for authenticated users
type Service struct {
	db          DB
	objects     storage.ObjectStore
	extractor   extraction.Extractor
	idGenerator IDGenerator
	nameGen     IDGenerator
}

// NewService creates a new Service with default ID and name generators.
// extractor may be nil, in which case uploads report the placeholder amount.
func NewService(db DB, objects storage.ObjectStore, extractor extraction.Extractor) *Service {
	return &Service{
		db:          db,
		objects:     objects,
		extractor:   extractor,
		idGenerator: &receiptIDGenerator{},
		nameGen:     &objectNameGenerator{},
	}
}

// NewServiceWithDeps creates a new Service with custom generators for testing
func NewServiceWithDeps(db DB, objects storage.ObjectStore, extractor extraction.Extractor, idGen, nameGen IDGenerator) *Service {
	return &Service{
		db:          db,
		objects:     objects,
		extractor:   extractor,
		idGenerator: idGen,
		nameGen:     nameGen,
	}
}

// CreateReceipt appends a receipt to the user's namespace and returns the
// stored record with its generated id. The id is assigned exactly once.
func (s *Service) CreateReceipt(ctx context.Context, uid string, receipt *Receipt) (*Receipt, error) {
	receipt.ID = s.idGenerator.Generate()
	if err := s.db.SaveReceipt(uid, receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}
	return receipt, nil
}

// GetReceipt retrieves one of the user's receipts by ID
func (s *Service) GetReceipt(ctx context.Context, uid, id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(uid, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all of the user's receipts in storage order
func (s *Service) ListReceipts(ctx context.Context, uid string) ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts(uid)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt unconditionally. Deleting an id that
// does not exist is still a success.
func (s *Service) DeleteReceipt(ctx context.Context, uid, id string) error {
	if err := s.db.DeleteReceipt(uid, id); err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}
	return nil
}

// ProcessUpload runs the upload pipeline for one image: name, persist,
// publish, extract. The steps are strictly sequential; each consumes the
// previous step's output. Extraction is best-effort: its failure is logged
// and the placeholder amount reported instead.
func (s *Service) ProcessUpload(ctx context.Context, data []byte, contentType string) (*UploadResult, error) {
	name := s.nameGen.Generate() + extensionFor(contentType)

	if err := s.persistObject(ctx, name, contentType, data); err != nil {
		return nil, err
	}

	fileURL, err := s.publishObject(ctx, name)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		Amount:  s.extractAmount(ctx, fileURL),
		FileURL: fileURL,
	}, nil
}

// persistObject streams the image into the object store.
func (s *Service) persistObject(ctx context.Context, name, contentType string, data []byte) error {
	if err := s.objects.Put(ctx, name, contentType, data); err != nil {
		return fmt.Errorf("%w: persisting %s: %v", ErrUpstream, name, err)
	}
	return nil
}

// publishObject makes the stored image publicly readable and returns its
// URL. Extraction needs a resolvable URL, so this must complete first. If
// publishing fails the stored object is removed rather than left private.
func (s *Service) publishObject(ctx context.Context, name string) (string, error) {
	fileURL, err := s.objects.Publish(ctx, name)
	if err != nil {
		if delErr := s.objects.Delete(ctx, name); delErr != nil {
			slog.Warn("Failed to clean up unpublished object", "name", name, "error", delErr)
		}
		return "", fmt.Errorf("%w: publishing %s: %v", ErrUpstream, name, err)
	}
	return fileURL, nil
}

// extractAmount calls the extraction client with the public URL. The
// result is optional: any failure yields the placeholder amount.
func (s *Service) extractAmount(ctx context.Context, fileURL string) float64 {
	if s.extractor == nil {
		return placeholderAmount
	}

	result, err := s.extractor.Extract(ctx, fileURL)
	if err != nil {
		extractionFailures.Inc()
		slog.Warn("Failed to extract amount", "url", fileURL, "error", err)
		return placeholderAmount
	}
	return result.Amount
}

// extensionFor maps the declared content type to a file extension. The
// client filename is never consulted.
func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/heic", "image/heif":
		return ".heic"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
