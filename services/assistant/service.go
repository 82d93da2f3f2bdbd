package assistant

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/deutschhelfer/models"
	"github.com/upb/deutschhelfer/repositories"
	"github.com/upb/deutschhelfer/services/providers"
	"github.com/upb/deutschhelfer/utils"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Sender sends one request to a provider
type Sender interface {
	SendToProvider(ctx context.Context, req providers.Request) (*providers.Result, error)
}

// EnvCredentials returns the environment credential for a provider, "" if unset
type EnvCredentials func(p providers.Provider) string

// CredentialSource tells where a provider's credential comes from
type CredentialSource string

const (
	CredentialStored CredentialSource = "stored"
	CredentialEnv    CredentialSource = "env"
	CredentialNone   CredentialSource = "none"
)

// CredentialStatus describes the credential configured for one provider
type CredentialStatus struct {
	Provider providers.Provider
	Source   CredentialSource
	Masked   string
}

// AskInput is one question from the user. Provider is optional and falls
// back to the stored default.
type AskInput struct {
	Provider string
	Prompt   string
	ImageRef string
}

// Answer is a successful reply and the history record kept for it
type Answer struct {
	Result *providers.Result
	Record *models.HistoryRecord
}

// Service answers questions and manages history, credentials and settings
type Service struct {
	sender      Sender
	history     repositories.HistoryRepository
	credentials repositories.CredentialRepository
	settings    repositories.SettingsRepository
	env         EnvCredentials
	defaults    models.Settings
	logger      *zap.Logger
}

// NewService creates a new assistant service. defaults supplies the
// provider and locale used until the user stores their own.
func NewService(
	sender Sender,
	repos *repositories.Repositories,
	env EnvCredentials,
	defaults *models.Settings,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if env == nil {
		env = func(providers.Provider) string { return "" }
	}
	s := &Service{
		sender:      sender,
		history:     repos.History,
		credentials: repos.Credentials,
		settings:    repos.Settings,
		env:         env,
		logger:      logger,
	}
	if defaults != nil {
		s.defaults = *defaults
	}
	return s
}

// Ask resolves provider and credential, sends the question and records the
// answer. Provider errors are returned unchanged and leave no history.
func (s *Service) Ask(ctx context.Context, in AskInput) (*Answer, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Provider)
	if name == "" {
		name = settings.DefaultProvider
	}
	provider, err := providers.ParseProvider(name)
	if err != nil {
		return nil, &providers.Error{Kind: providers.KindInvalidRequest, Message: "unknown provider", Cause: err}
	}

	credential, _, err := s.resolveCredential(ctx, provider)
	if err != nil {
		return nil, err
	}

	result, err := s.sender.SendToProvider(ctx, providers.Request{
		Provider:   provider,
		Credential: credential,
		Prompt:     in.Prompt,
		ImageRef:   in.ImageRef,
		Locale:     settings.Locale,
	})
	if err != nil {
		s.logger.Info("question failed",
			zap.String("provider", string(provider)),
			zap.String("kind", string(providers.KindOf(err))))
		return nil, err
	}

	prompt := strings.TrimSpace(in.Prompt)
	if HasSecrets(prompt) {
		s.logger.Warn("prompt contained a secret, redacting before storing", zap.String("provider", string(provider)))
		prompt = RedactSecrets(prompt)
	}

	rec := models.NewHistoryRecord(string(result.Provider), prompt, result.ResizedImageRef, result.Text)
	if err := s.history.Save(ctx, rec); err != nil {
		// the answer is still delivered
		s.logger.Error("failed to record history", zap.Error(err))
		return &Answer{Result: result}, nil
	}

	return &Answer{Result: result, Record: rec}, nil
}

// History returns past answers, newest first
func (s *Service) History(ctx context.Context, limit, offset int) ([]*models.HistoryRecord, error) {
	return s.history.List(ctx, limit, offset)
}

// HistoryEntry returns one record by its ID
func (s *Service) HistoryEntry(ctx context.Context, id string) (*models.HistoryRecord, error) {
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.history.GetByID(ctx, parsed)
}

// DeleteHistoryEntry removes one record and its resized image
func (s *Service) DeleteHistoryEntry(ctx context.Context, id string) error {
	parsed, err := parseID(id)
	if err != nil {
		return err
	}
	rec, err := s.history.GetByID(ctx, parsed)
	if err != nil {
		return err
	}
	if err := s.history.Delete(ctx, parsed); err != nil {
		return err
	}
	s.removeImages(rec.ImageRef)
	return nil
}

// ClearHistory removes every record and the resized images they point at
func (s *Service) ClearHistory(ctx context.Context) (int64, error) {
	refs, err := s.history.ImageRefs(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.history.Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.removeImages(refs...)
	return n, nil
}

// removeImages deletes resized copies; a file that is already gone is fine
func (s *Service) removeImages(refs ...string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := os.Remove(ref); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to remove image", zap.String("ref", ref), zap.Error(err))
		}
	}
}

type credentialInput struct {
	Provider string `validate:"required,oneof=openai anthropic perplexity"`
	Secret   string `validate:"required,min=8"`
}

// SetCredential stores the API key for a provider
func (s *Service) SetCredential(ctx context.Context, provider, secret string) error {
	in := credentialInput{
		Provider: strings.ToLower(strings.TrimSpace(provider)),
		Secret:   strings.TrimSpace(secret),
	}
	if err := utils.ValidateStruct(&in); err != nil {
		return err
	}
	return s.credentials.Set(ctx, in.Provider, in.Secret)
}

// DeleteCredential removes the stored API key for a provider
func (s *Service) DeleteCredential(ctx context.Context, provider string) error {
	p, err := providers.ParseProvider(provider)
	if err != nil {
		return err
	}
	return s.credentials.Delete(ctx, string(p))
}

// Credentials reports where each provider's credential comes from
func (s *Service) Credentials(ctx context.Context) ([]CredentialStatus, error) {
	statuses := make([]CredentialStatus, 0, len(providers.All()))
	for _, p := range providers.All() {
		secret, source, err := s.resolveCredential(ctx, p)
		if err != nil && !providers.IsKind(err, providers.KindMissingCredential) {
			return nil, err
		}
		status := CredentialStatus{Provider: p, Source: source}
		if secret != "" {
			status.Masked = (&models.Credential{Secret: secret}).Masked()
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Settings returns the stored settings on top of the configured defaults
func (s *Service) Settings(ctx context.Context) (*models.Settings, error) {
	defaults := s.defaults
	settings, err := s.settings.Get(ctx, &defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// SetDefaultProvider stores the provider used when a question names none
func (s *Service) SetDefaultProvider(ctx context.Context, name string) error {
	p, err := providers.ParseProvider(name)
	if err != nil {
		return err
	}
	return s.updateSettings(ctx, func(st *models.Settings) { st.DefaultProvider = string(p) })
}

// SetLocale stores the locale that selects the image preamble
func (s *Service) SetLocale(ctx context.Context, locale string) error {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return s.updateSettings(ctx, func(st *models.Settings) { st.Locale = tag.String() })
}

func (s *Service) updateSettings(ctx context.Context, mutate func(*models.Settings)) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	mutate(settings)
	if err := s.settings.Save(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Info("settings updated",
		zap.String("default_provider", settings.DefaultProvider),
		zap.String("locale", settings.Locale))
	return nil
}

// resolveCredential prefers the stored key and falls back to the environment
func (s *Service) resolveCredential(ctx context.Context, p providers.Provider) (string, CredentialSource, error) {
	secret, found, err := s.credentials.Get(ctx, string(p))
	if err != nil {
		return "", CredentialNone, fmt.Errorf("failed to load credential: %w", err)
	}
	if found && strings.TrimSpace(secret) != "" {
		return secret, CredentialStored, nil
	}
	if secret := strings.TrimSpace(s.env(p)); secret != "" {
		return secret, CredentialEnv, nil
	}
	return "", CredentialNone, &providers.Error{
		Kind:     providers.KindMissingCredential,
		Provider: p,
		Message:  "no credential configured",
	}
}

func parseID(id string) (uuid.UUID, error) {
	id = strings.TrimSpace(id)
	if err := utils.ValidateUUID(id); err != nil {
		return uuid.Nil, fmt.Errorf("invalid history id: %w", err)
	}
	return uuid.MustParse(id), nil
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
