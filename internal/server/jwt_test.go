package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/insight-scraper/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing"

func setupTestJWTService(t *testing.T, ttl time.Duration) *JWTService {
	t.Helper()
	cfg, err := config.NewJWTConfig(testSecret, ttl)
	require.NoError(t, err)
	return NewJWTService(cfg)
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := setupTestJWTService(t, time.Hour)

	token, err := service.GenerateToken("reporting-job")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	subject, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "reporting-job", subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTService_GenerateToken_RequiresSubject(t *testing.T) {
	service := setupTestJWTService(t, time.Hour)
	_, err := service.GenerateToken("")
	assert.Error(t, err)
}

func TestJWTService_Expired(t *testing.T) {
	service := setupTestJWTService(t, time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken("c")
	require.NoError(t, err)

	service.now = time.Now
	_, err = service.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestJWTService_WrongSecret(t *testing.T) {
	service := setupTestJWTService(t, time.Hour)
	token, err := service.GenerateToken("c")
	require.NoError(t, err)

	other, err := config.NewJWTConfig("a-completely-different-secret", time.Hour)
	require.NoError(t, err)
	_, err = NewJWTService(other).ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token signature")
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	service := setupTestJWTService(t, time.Hour)

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "c",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestJWTService_Malformed(t *testing.T) {
	service := setupTestJWTService(t, time.Hour)

	_, err := service.ValidateToken("")
	assert.Error(t, err)

	_, err = service.ValidateToken("not.a.jwt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed token")
}

func TestJWTService_ValidatorAdapter(t *testing.T) {
	service := setupTestJWTService(t, time.Hour)
	token, err := service.GenerateToken("dashboard")
	require.NoError(t, err)

	getter, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	subject, err := getter.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "dashboard", subject)
}
