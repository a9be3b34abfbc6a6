package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (f *fakeSender) SendLoginCode(_ context.Context, email, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.codes == nil {
		f.codes = map[string]string{}
	}
	f.codes[email] = code
	return nil
}

func (f *fakeSender) code(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email]
}

type authFixture struct {
	svc    *AuthService
	db     *mockDB
	sender *fakeSender
	hash   string
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	_, rdb := newTestRedis(t)
	db := &mockDB{}
	sender := &fakeSender{}
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)

	admin := model.AdminUser{ID: "adm_1", Email: "root@example.com", PasswordHash: hash, Status: model.AdminActive}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"root@example.com"}).
		Return(&mockRow{scanFunc: adminScan(admin)}).Maybe()
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"nobody@example.com"}).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}).Maybe()
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), []any{"adm_1"}).Return(tag("UPDATE 1"), nil).Maybe()

	svc := NewAuthService(rdb, NewAdminUserService(db, nil), sender, AuthConfig{
		JWTSecret: testSecret,
		JWTIssuer: "saasadmin",
	})
	return &authFixture{svc: svc, db: db, sender: sender, hash: hash}
}

func TestAuthService_FullFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Initiate(ctx, "Root@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "otp", res.Step)
	assert.Equal(t, 60, res.CooldownSeconds)
	assert.Equal(t, 600, res.ExpiresInSeconds)

	code := f.sender.code("root@example.com")
	require.Len(t, code, 6)
	assert.True(t, ValidOTP(code))

	challenge, err := f.svc.VerifyOTP(ctx, "root@example.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, challenge)

	_, err = f.svc.VerifyOTP(ctx, "root@example.com", code)
	assert.ErrorIs(t, err, ErrUnauthorized, "codes are single use")

	_, _, err = f.svc.Login(ctx, challenge, "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)

	token, admin, err := f.svc.Login(ctx, challenge, "hunter22")
	require.NoError(t, err, "challenge survives a wrong password")
	assert.Equal(t, "adm_1", admin.ID)

	claims, err := f.svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "adm_1", claims.Subject)
	assert.Equal(t, "root@example.com", claims.Email)

	_, _, err = f.svc.Login(ctx, challenge, "hunter22")
	assert.ErrorIs(t, err, ErrUnauthorized, "challenge is consumed")
}

func TestAuthService_Initiate_Cooldown(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Initiate(ctx, "root@example.com")
	require.NoError(t, err)

	_, err = f.svc.Initiate(ctx, "root@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCooldown)
	var cd *CooldownError
	require.True(t, errors.As(err, &cd))
	assert.Greater(t, cd.RetryAfterSeconds, 0)
	assert.LessOrEqual(t, cd.RetryAfterSeconds, 60)
}

func TestAuthService_Initiate_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Initiate(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, "otp", res.Step)
	assert.Empty(t, f.sender.code("nobody@example.com"))

	_, err = f.svc.VerifyOTP(ctx, "nobody@example.com", "123456")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Initiate_SendFailureClearsCooldown(t *testing.T) {
	f := newAuthFixture(t)
	f.sender.err = errors.New("smtp down")
	ctx := context.Background()

	_, err := f.svc.Initiate(ctx, "root@example.com")
	require.Error(t, err)

	f.sender.err = nil
	_, err = f.svc.Initiate(ctx, "root@example.com")
	assert.NoError(t, err)
}

func TestAuthService_VerifyOTP_TooManyAttempts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Initiate(ctx, "root@example.com")
	require.NoError(t, err)
	code := f.sender.code("root@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 4; i++ {
		_, err := f.svc.VerifyOTP(ctx, "root@example.com", wrong)
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
	_, err = f.svc.VerifyOTP(ctx, "root@example.com", wrong)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = f.svc.VerifyOTP(ctx, "root@example.com", code)
	assert.ErrorIs(t, err, ErrUnauthorized, "the code is discarded after too many attempts")
}

func TestAuthService_Login_TooManyPasswordAttempts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Initiate(ctx, "root@example.com")
	require.NoError(t, err)
	challenge, err := f.svc.VerifyOTP(ctx, "root@example.com", f.sender.code("root@example.com"))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _, err := f.svc.Login(ctx, challenge, "wrong-password")
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
	_, _, err = f.svc.Login(ctx, challenge, "wrong-password")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	_, _, err = f.svc.Login(ctx, challenge, "hunter22")
	assert.ErrorIs(t, err, ErrUnauthorized, "the challenge is discarded after too many attempts")
}

func TestAuthService_VerifyOTP_Format(t *testing.T) {
	f := newAuthFixture(t)
	for _, otp := range []string{"", "12345", "1234567", "12a456", "١٢٣٤٥٦"} {
		_, err := f.svc.VerifyOTP(context.Background(), "root@example.com", otp)
		assert.ErrorIs(t, err, ErrInvalidInput, otp)
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	f := newAuthFixture(t)
	admin := &model.AdminUser{ID: "adm_1", Email: "root@example.com"}

	token, err := f.svc.IssueToken(admin)
	require.NoError(t, err)
	_, err = f.svc.ValidateToken(token)
	require.NoError(t, err)

	_, err = f.svc.ValidateToken(token + "x")
	assert.ErrorIs(t, err, ErrUnauthorized)

	f.svc.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	expired, err := f.svc.IssueToken(admin)
	require.NoError(t, err)
	_, err = f.svc.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "adm_1", Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	foreign, err := other.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = f.svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
