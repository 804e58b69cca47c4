package service

import (
	"context"
	"fmt"
	"time"

	"github.com/airsyncd/airsyncd/internal/config"
	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/store"
	"github.com/airsyncd/airsyncd/internal/utils"
	"github.com/airsyncd/airsyncd/models"
	"golang.org/x/crypto/bcrypt"
)

// authService is the concrete implementation of AuthService. It handles
// device registration, credential verification and the JWT token
// lifecycle, using a DeviceRepository for persistence and bcrypt for
// password hashing.
type authService struct {
	deviceRepository store.DeviceRepository

	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during
	// parsing.
	tokenIssuer string

	// tokenDuration controls how long a newly issued JWT remains valid.
	tokenDuration time.Duration

	logger *logger.Logger
}

// NewAuthService constructs an AuthService wired to the given
// DeviceRepository and populated with token parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService(deviceRepository store.DeviceRepository, cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		deviceRepository: deviceRepository,
		tokenSignKey:     cfg.TokenSignKey,
		tokenIssuer:      cfg.TokenIssuer,
		tokenDuration:    cfg.TokenDuration,
		logger:           logger,
	}
}

// RegisterDevice creates a new device account.
//
// It validates that DeviceID, Login and Password are non-empty, hashes the
// password with bcrypt, and delegates persistence to the DeviceRepository.
//
// Returns the persisted device or:
//   - ErrInvalidDataProvided if a required credential field is empty.
//   - A wrapped storage error if the repository call fails (e.g. login
//     already taken: see store.ErrLoginAlreadyExists).
func (a *authService) RegisterDevice(ctx context.Context, credentials models.Credentials) (models.Device, error) {
	log := logger.FromContext(ctx)

	if credentials.DeviceID == "" || credentials.Login == "" || credentials.Password == "" {
		log.Error().
			Str("func", "authService.RegisterDevice").
			Str("device_id", credentials.DeviceID).
			Str("login", credentials.Login).
			Msg("invalid credentials provided")
		return models.Device{}, ErrInvalidDataProvided
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credentials.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Device{}, fmt.Errorf("hashing password failed: %w", err)
	}

	registered, err := a.deviceRepository.CreateDevice(ctx, models.Device{
		DeviceID: credentials.DeviceID,
		Login:    credentials.Login,
		Password: string(hash),
	})
	if err != nil {
		log.Err(err).
			Str("func", "authService.RegisterDevice").
			Str("login", credentials.Login).
			Msg("device creation ended with error")
		return models.Device{}, fmt.Errorf("device creation ended with error: %w", err)
	}

	return registered, nil
}

// Login authenticates an existing device account.
//
// Returns the stored device record or:
//   - ErrInvalidDataProvided if Login or Password is empty.
//   - A wrapped storage error if the lookup fails (see
//     store.ErrNoDeviceWasFound).
//   - ErrWrongPassword if the password does not match the stored hash.
func (a *authService) Login(ctx context.Context, credentials models.Credentials) (models.Device, error) {
	log := logger.FromContext(ctx)

	if credentials.Login == "" || credentials.Password == "" {
		log.Error().
			Str("func", "authService.Login").
			Str("login", credentials.Login).
			Msg("invalid credentials provided")
		return models.Device{}, ErrInvalidDataProvided
	}

	device, err := a.deviceRepository.FindDeviceByLogin(ctx, credentials.Login)
	if err != nil {
		log.Err(err).
			Str("func", "authService.Login").
			Str("login", credentials.Login).
			Msg("device search by login failed")
		return models.Device{}, fmt.Errorf("device search by login failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(device.Password), []byte(credentials.Password)); err != nil {
		log.Error().
			Str("func", "authService.Login").
			Str("login", credentials.Login).
			Msg("wrong password")
		return models.Device{}, ErrWrongPassword
	}

	return device, nil
}

// CreateToken issues a signed JWT for the given device.
//
// The token is signed with the configured sign key, carries the configured
// issuer as the "iss" claim and the device identity as "sub", and expires
// after the configured duration.
func (a *authService) CreateToken(_ context.Context, device models.Device) (models.Token, error) {
	token, err := utils.GenerateJWTToken(a.tokenIssuer, device.DeviceID, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken validates and parses a raw JWT string: signature, issuer,
// expiry and subject presence.
func (a *authService) ParseToken(_ context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		return models.Token{}, fmt.Errorf("token validation failed: %w", err)
	}

	return token, nil
}
