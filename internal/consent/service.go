package consent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecosan/sanitrack/internal/pkg/logger"
)

// ErrMissingName is returned when no signer name accompanies the signature.
var ErrMissingName = errors.New("client name is required")

// Receipt describes a stored consent document.
type Receipt struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	ClientName string    `json:"client_name"`
	SignedAt   time.Time `json:"signed_at"`
}

// Service builds consent PDFs from captured signatures and uploads them.
type Service struct {
	uploader Uploader
	prefix   string
}

// NewService creates a consent service. prefix is prepended to object keys.
func NewService(uploader Uploader, prefix string) *Service {
	return &Service{uploader: uploader, prefix: prefix}
}

// Sign decodes the signature, renders the consent PDF, and uploads it.
func (s *Service) Sign(ctx context.Context, clientName, signatureDataURL string) (*Receipt, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, ErrMissingName
	}

	img, err := DecodeSignature(signatureDataURL)
	if err != nil {
		return nil, err
	}

	pdfData, err := BuildPDF(clientName, img)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%sconsent_%d_%s.pdf", s.prefix, now.Unix(), uuid.New().String())

	url, err := s.uploader.Upload(ctx, key, pdfData)
	if err != nil {
		return nil, fmt.Errorf("uploading consent document: %w", err)
	}

	logger.Info("consent document stored", "client", clientName, "key", key)
	return &Receipt{Key: key, URL: url, ClientName: clientName, SignedAt: now}, nil
}
