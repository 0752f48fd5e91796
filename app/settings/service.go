package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	KeyIngestionURL = "ingestion_url"
	KeyRegions      = "regions"
)

var ErrInvalidURL = errors.New("invalid ingestion URL")

var regionsPolicy = bluemonday.UGCPolicy()

type Settings struct {
	IngestionURL string `json:"ingestion_url"`
	Regions      string `json:"regions"`
}

// Repository persists settings as name/value pairs.
type Repository interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, values map[string]string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	values, err := s.repo.GetSettings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	return Settings{
		IngestionURL: values[KeyIngestionURL],
		Regions:      values[KeyRegions],
	}, nil
}

// Save validates and sanitizes the given settings before persisting them,
// and returns the values actually stored.
func (s *Service) Save(ctx context.Context, in Settings) (Settings, error) {
	ingestionURL, err := NormalizeURL(in.IngestionURL)
	if err != nil {
		return Settings{}, err
	}

	out := Settings{
		IngestionURL: ingestionURL,
		Regions:      strings.TrimSpace(regionsPolicy.Sanitize(in.Regions)),
	}

	err = s.repo.SaveSettings(ctx, map[string]string{
		KeyIngestionURL: out.IngestionURL,
		KeyRegions:      out.Regions,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}

	slog.Info("Settings saved", "ingestion_url", out.IngestionURL)

	return out, nil
}

// Seed stores ingestionURL when no value has been saved yet.
func (s *Service) Seed(ctx context.Context, ingestionURL string) error {
	if strings.TrimSpace(ingestionURL) == "" {
		return nil
	}

	normalized, err := NormalizeURL(ingestionURL)
	if err != nil {
		return err
	}

	values, err := s.repo.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if values[KeyIngestionURL] != "" {
		return nil
	}

	if err := s.repo.SaveSettings(ctx, map[string]string{KeyIngestionURL: normalized}); err != nil {
		return fmt.Errorf("failed to seed ingestion URL: %w", err)
	}

	slog.Info("Ingestion URL seeded from configuration", "ingestion_url", normalized)

	return nil
}

// IngestionURL returns the configured feed base URL, or "" when none is set
// or the store cannot be read.
func (s *Service) IngestionURL(ctx context.Context) string {
	values, err := s.repo.GetSettings(ctx)
	if err != nil {
		slog.Warn("Failed to read ingestion URL", "error", err)
		return ""
	}
	return values[KeyIngestionURL]
}

// NormalizeURL accepts an empty value or an absolute http(s) URL.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme '%s'", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return u.String(), nil
}
