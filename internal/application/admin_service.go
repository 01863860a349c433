package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const adminSubject = "admin"

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AdminServiceConfig carries the admin gate settings.
type AdminServiceConfig struct {
	// Secret signs admin tokens with HS256.
	Secret []byte
	// TokenTTL bounds the lifetime of an admin token.
	TokenTTL time.Duration
	// ConfigTTL bounds how long the admin-config document is held in memory.
	ConfigTTL time.Duration
	// HashParams tunes argon2id for new password hashes. Zero means DefaultArgon2idParams.
	HashParams Argon2idParams
}

// AdminService is the admin credential gate. It checks passwords against the
// stored argon2id hash, issues signed tokens, and rotates the password.
type AdminService struct {
	configs        AdminConfigRepository
	cache          *adminConfigCache
	secret         []byte
	tokenTTL       time.Duration
	hashParams     Argon2idParams
	verifyPassword PasswordVerifier
	tokenIDs       func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAdminService constructs an AdminService with the provided dependencies.
func NewAdminService(configs AdminConfigRepository, cfg AdminServiceConfig, now func() time.Time) *AdminService {
	return NewAdminServiceWithLogger(configs, cfg, now, nil)
}

// NewAdminServiceWithLogger constructs an AdminService with a specified logger.
func NewAdminServiceWithLogger(configs AdminConfigRepository, cfg AdminServiceConfig, now func() time.Time, logger *slog.Logger) *AdminService {
	if now == nil {
		now = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.HashParams == (Argon2idParams{}) {
		cfg.HashParams = DefaultArgon2idParams
	}
	return &AdminService{
		configs:        configs,
		cache:          newAdminConfigCache(cfg.ConfigTTL),
		secret:         cfg.Secret,
		tokenTTL:       cfg.TokenTTL,
		hashParams:     cfg.HashParams,
		verifyPassword: VerifyPassword,
		tokenIDs:       uuid.NewString,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AdminService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AdminService", operation, attrs...)
}

// CheckPassword reports whether candidate matches the stored admin password.
// Any failure to load or verify counts as a mismatch.
func (s *AdminService) CheckPassword(ctx context.Context, candidate string) bool {
	if s == nil || candidate == "" {
		return false
	}
	cfg, err := s.loadConfig(ctx)
	if err != nil || !cfg.Configured() {
		return false
	}
	return s.verifyPassword(cfg.PasswordHash, candidate) == nil
}

// Login verifies the admin password and issues a signed token.
func (s *AdminService) Login(ctx context.Context, password string) (token AdminToken, err error) {
	if s == nil {
		err = fmt.Errorf("AdminService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Login")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "admin login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("expires_at", token.ExpiresAt).InfoContext(ctx, "admin login succeeded")
	}()

	if len(s.secret) == 0 {
		err = fmt.Errorf("admin token secret not configured")
		return
	}
	if password == "" {
		err = ErrInvalidCredentials
		return
	}

	var cfg AdminConfig
	cfg, err = s.loadConfig(ctx)
	if err != nil {
		return
	}
	if !cfg.Configured() {
		err = ErrAdminNotConfigured
		return
	}
	if verifyErr := s.verifyPassword(cfg.PasswordHash, password); verifyErr != nil {
		if !errors.Is(verifyErr, ErrInvalidCredentials) {
			logger.WarnContext(ctx, "stored password hash rejected", "error", verifyErr)
		}
		err = ErrInvalidCredentials
		return
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		ID:        s.tokenIDs(),
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	var signed string
	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		err = fmt.Errorf("sign admin token: %w", err)
		return
	}

	token = AdminToken{Token: signed, ExpiresAt: claims.ExpiresAt.Time}
	return
}

// ValidateToken checks the signature and expiry of an admin token and rejects
// tokens issued before the password last changed.
func (s *AdminService) ValidateToken(ctx context.Context, raw string) (principal AdminPrincipal, err error) {
	if s == nil {
		err = fmt.Errorf("AdminService is nil")
		return
	}
	if raw == "" || len(s.secret) == 0 {
		err = ErrUnauthorized
		return
	}

	claims := &jwt.RegisteredClaims{}
	_, parseErr := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if parseErr != nil {
		err = fmt.Errorf("%w: %v", ErrUnauthorized, parseErr)
		return
	}
	if claims.IssuedAt == nil {
		err = fmt.Errorf("%w: token has no issue time", ErrUnauthorized)
		return
	}

	var cfg AdminConfig
	cfg, err = s.loadConfig(ctx)
	if err != nil {
		return
	}
	if !cfg.LastUpdated.IsZero() && claims.IssuedAt.Time.Before(cfg.LastUpdated.Truncate(time.Second)) {
		err = fmt.Errorf("%w: token predates password change", ErrUnauthorized)
		return
	}

	principal = AdminPrincipal{
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	return
}

// UpdatePassword stores a new argon2id hash for the admin password. Tokens
// issued before the change stop validating.
func (s *AdminService) UpdatePassword(ctx context.Context, params UpdatePasswordParams) (err error) {
	if s == nil {
		return fmt.Errorf("AdminService is nil")
	}
	if s.configs == nil {
		return fmt.Errorf("admin config repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdatePassword")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update admin password", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "admin password updated")
	}()

	if vErr := validatePasswordChange(params.NewPassword, params.Confirmation); vErr.HasErrors() {
		return vErr
	}

	hash, err := CreatePasswordHash(params.NewPassword, s.hashParams)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	cfg := AdminConfig{PasswordHash: hash, LastUpdated: s.now().UTC()}
	defer s.cache.Invalidate()
	if err = s.configs.ReplaceAdminConfig(ctx, cfg); err != nil {
		return mapRepoError(err)
	}
	return nil
}

func (s *AdminService) loadConfig(ctx context.Context) (AdminConfig, error) {
	if cfg, ok := s.cache.Get(); ok {
		return cfg, nil
	}
	if s.configs == nil {
		return AdminConfig{}, nil
	}
	cfg, err := s.configs.FetchAdminConfig(ctx)
	if err != nil {
		return AdminConfig{}, mapRepoError(err)
	}
	s.cache.Store(cfg)
	return cfg, nil
}
