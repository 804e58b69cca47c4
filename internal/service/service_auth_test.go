package service

import (
	"context"
	"testing"
	"time"

	"github.com/airsyncd/airsyncd/internal/config"
	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/store"
	"github.com/airsyncd/airsyncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService() AuthService {
	return NewAuthService(store.NewMemoryDeviceRepository(), config.App{
		TokenSignKey:  "test-sign-key",
		TokenIssuer:   "airsyncd-test",
		TokenDuration: time.Hour,
	}, logger.Nop())
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	credentials := models.Credentials{DeviceID: "phone-1", Login: "ada", Password: "s3cret"}

	registered, err := auth.RegisterDevice(ctx, credentials)
	require.NoError(t, err)
	assert.Equal(t, "phone-1", registered.DeviceID)
	assert.NotEqual(t, "s3cret", registered.Password, "password must be stored hashed")

	device, err := auth.Login(ctx, credentials)
	require.NoError(t, err)
	assert.Equal(t, "phone-1", device.DeviceID)
}

func TestAuthService_RegisterValidatesRequiredFields(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	tests := []struct {
		name        string
		credentials models.Credentials
	}{
		{name: "MissingDeviceID", credentials: models.Credentials{Login: "ada", Password: "pw"}},
		{name: "MissingLogin", credentials: models.Credentials{DeviceID: "d1", Password: "pw"}},
		{name: "MissingPassword", credentials: models.Credentials{DeviceID: "d1", Login: "ada"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.RegisterDevice(ctx, tt.credentials)
			assert.ErrorIs(t, err, ErrInvalidDataProvided)
		})
	}
}

func TestAuthService_RegisterRejectsDuplicateLogin(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	credentials := models.Credentials{DeviceID: "phone-1", Login: "ada", Password: "pw"}

	_, err := auth.RegisterDevice(ctx, credentials)
	require.NoError(t, err)

	_, err = auth.RegisterDevice(ctx, credentials)
	assert.ErrorIs(t, err, store.ErrLoginAlreadyExists)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	_, err := auth.RegisterDevice(ctx, models.Credentials{DeviceID: "phone-1", Login: "ada", Password: "right"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, models.Credentials{Login: "ada", Password: "wrong"})
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestAuthService_LoginUnknownDevice(t *testing.T) {
	auth := newTestAuthService()

	_, err := auth.Login(context.Background(), models.Credentials{Login: "ghost", Password: "pw"})
	assert.ErrorIs(t, err, store.ErrNoDeviceWasFound)
}

func TestAuthService_TokenRoundtrip(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	token, err := auth.CreateToken(ctx, models.Device{DeviceID: "phone-1"})
	require.NoError(t, err)
	require.NotEmpty(t, token.SignedString)

	parsed, err := auth.ParseToken(ctx, token.SignedString)
	require.NoError(t, err)
	assert.Equal(t, "phone-1", parsed.DeviceID)
}

func TestAuthService_ParseTokenRejectsForeignSignature(t *testing.T) {
	auth := newTestAuthService()
	ctx := context.Background()

	foreign := NewAuthService(store.NewMemoryDeviceRepository(), config.App{
		TokenSignKey:  "other-sign-key",
		TokenIssuer:   "airsyncd-test",
		TokenDuration: time.Hour,
	}, logger.Nop())

	token, err := foreign.CreateToken(ctx, models.Device{DeviceID: "phone-1"})
	require.NoError(t, err)

	_, err = auth.ParseToken(ctx, token.SignedString)
	assert.Error(t, err)
}
