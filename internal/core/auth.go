package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v4"

	"github.com/edvin/saasadmin/internal/model"
)

// CodeSender delivers one-time login codes.
type CodeSender interface {
	SendLoginCode(ctx context.Context, email, code string, ttl time.Duration) error
}

// AuthConfig holds the login flow settings.
type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
	OTPTTL         time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	ChallengeTTL   time.Duration
}

func (c *AuthConfig) defaults() {
	if c.JWTTTL <= 0 {
		c.JWTTTL = 12 * time.Hour
	}
	if c.OTPTTL <= 0 {
		c.OTPTTL = 10 * time.Minute
	}
	if c.ResendCooldown <= 0 {
		c.ResendCooldown = 60 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.ChallengeTTL <= 0 {
		c.ChallengeTTL = 5 * time.Minute
	}
}

// Claims are the JWT claims of an admin session. Subject is the admin ID.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// InitiateResult tells the client how to continue after an email is accepted.
type InitiateResult struct {
	Step             string `json:"step"`
	CooldownSeconds  int    `json:"cooldown_seconds"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// AuthService runs the three-step admin login: email, one-time code, password.
type AuthService struct {
	rdb    *redis.Client
	admins *AdminUserService
	sender CodeSender
	cfg    AuthConfig
	now    func() time.Time
}

func NewAuthService(rdb *redis.Client, admins *AdminUserService, sender CodeSender, cfg AuthConfig) *AuthService {
	cfg.defaults()
	return &AuthService{rdb: rdb, admins: admins, sender: sender, cfg: cfg, now: time.Now}
}

func otpKey(email string) string      { return "otp:" + email }
func cooldownKey(email string) string { return "otp:cooldown:" + email }
func challengeKey(c string) string    { return "login:challenge:" + c }
func challengeFails(c string) string  { return "login:challenge:" + c + ":fails" }

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Initiate starts a login for email. Unknown and disabled admins get the same
// answer as real ones but no code is stored or sent.
func (s *AuthService) Initiate(ctx context.Context, email string) (*InitiateResult, error) {
	email = NormalizeEmail(email)
	result := &InitiateResult{
		Step:             "otp",
		CooldownSeconds:  int(s.cfg.ResendCooldown / time.Second),
		ExpiresInSeconds: int(s.cfg.OTPTTL / time.Second),
	}

	ok, err := s.rdb.SetNX(ctx, cooldownKey(email), 1, s.cfg.ResendCooldown).Result()
	if err != nil {
		return nil, fmt.Errorf("set otp cooldown: %w", err)
	}
	if !ok {
		ttl, err := s.rdb.TTL(ctx, cooldownKey(email)).Result()
		if err != nil {
			return nil, fmt.Errorf("get otp cooldown: %w", err)
		}
		secs := int((ttl + time.Second - 1) / time.Second)
		if secs < 1 {
			secs = 1
		}
		return nil, &CooldownError{RetryAfterSeconds: secs}
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	if admin.Status != model.AdminActive {
		return result, nil
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, otpKey(email))
	pipe.HSet(ctx, otpKey(email), "hash", hashCode(code), "attempts", 0)
	pipe.Expire(ctx, otpKey(email), s.cfg.OTPTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	if err := s.sender.SendLoginCode(ctx, email, code, s.cfg.OTPTTL); err != nil {
		s.rdb.Del(ctx, otpKey(email), cooldownKey(email))
		return nil, fmt.Errorf("send login code: %w", err)
	}
	return result, nil
}

// ValidOTP reports whether s is exactly six ASCII digits.
func ValidOTP(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// VerifyOTP checks the code and returns a one-time challenge for the password step.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	email = NormalizeEmail(email)
	if !ValidOTP(otp) {
		return "", invalid("otp must be six digits")
	}

	stored, err := s.rdb.HGetAll(ctx, otpKey(email)).Result()
	if err != nil {
		return "", fmt.Errorf("get otp: %w", err)
	}
	if stored["hash"] == "" {
		return "", fmt.Errorf("verify otp: %w", ErrUnauthorized)
	}

	if subtle.ConstantTimeCompare([]byte(stored["hash"]), []byte(hashCode(otp))) != 1 {
		attempts, err := s.rdb.HIncrBy(ctx, otpKey(email), "attempts", 1).Result()
		if err != nil {
			return "", fmt.Errorf("count otp attempt: %w", err)
		}
		if int(attempts) >= s.cfg.MaxAttempts {
			s.rdb.Del(ctx, otpKey(email))
			return "", fmt.Errorf("verify otp: %w", ErrTooManyAttempts)
		}
		return "", fmt.Errorf("verify otp: %w", ErrUnauthorized)
	}

	if err := s.rdb.Del(ctx, otpKey(email)).Err(); err != nil {
		return "", fmt.Errorf("consume otp: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate challenge: %w", err)
	}
	challenge := hex.EncodeToString(buf)
	if err := s.rdb.Set(ctx, challengeKey(challenge), email, s.cfg.ChallengeTTL).Err(); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	return challenge, nil
}

// Login finishes the flow. A wrong password leaves the challenge usable
// until MaxAttempts failures, after which the challenge is discarded.
func (s *AuthService) Login(ctx context.Context, challenge, password string) (string, *model.AdminUser, error) {
	if challenge == "" {
		return "", nil, fmt.Errorf("login: %w", ErrUnauthorized)
	}
	email, err := s.rdb.Get(ctx, challengeKey(challenge)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil, fmt.Errorf("login: %w", ErrUnauthorized)
	}
	if err != nil {
		return "", nil, fmt.Errorf("get challenge: %w", err)
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, fmt.Errorf("login: %w", ErrUnauthorized)
		}
		return "", nil, err
	}
	if admin.Status != model.AdminActive || !VerifyPassword(password, admin.PasswordHash) {
		return "", nil, s.failChallenge(ctx, challenge)
	}

	if err := s.rdb.Del(ctx, challengeKey(challenge), challengeFails(challenge)).Err(); err != nil {
		return "", nil, fmt.Errorf("consume challenge: %w", err)
	}
	if err := s.admins.RecordLogin(ctx, admin.ID); err != nil {
		return "", nil, err
	}
	token, err := s.IssueToken(admin)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

func (s *AuthService) failChallenge(ctx context.Context, challenge string) error {
	pipe := s.rdb.TxPipeline()
	fails := pipe.Incr(ctx, challengeFails(challenge))
	pipe.Expire(ctx, challengeFails(challenge), s.cfg.ChallengeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("count password attempt: %w", err)
	}
	if int(fails.Val()) >= s.cfg.MaxAttempts {
		s.rdb.Del(ctx, challengeKey(challenge), challengeFails(challenge))
		return fmt.Errorf("login: %w", ErrTooManyAttempts)
	}
	return fmt.Errorf("login: %w", ErrUnauthorized)
}

// IssueToken signs an HS256 session token for the admin.
func (s *AuthService) IssueToken(admin *model.AdminUser) (string, error) {
	now := s.now()
	claims := Claims{
		Email: admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			Issuer:    s.cfg.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ValidateToken parses a session token and checks signature, expiry and issuer.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("validate token: %w: %v", ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("validate token: %w", ErrUnauthorized)
	}
	if s.cfg.JWTIssuer != "" && !claims.VerifyIssuer(s.cfg.JWTIssuer, true) {
		return nil, fmt.Errorf("validate token: %w: wrong issuer", ErrUnauthorized)
	}
	return claims, nil
}
