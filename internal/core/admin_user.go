package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

// MaxAvatarBytes caps decoded avatar images.
const MaxAvatarBytes = 2 << 20

var avatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AvatarStore keeps avatar images in object storage.
type AvatarStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}

type AdminUserService struct {
	db      DB
	avatars AvatarStore
}

func NewAdminUserService(db DB, avatars AvatarStore) *AdminUserService {
	return &AdminUserService{db: db, avatars: avatars}
}

const adminColumns = `id, email, password_hash, display_name, avatar_key, status, last_login_at, created_at, updated_at`

func scanAdmin(row interface{ Scan(...any) error }, u *model.AdminUser) error {
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.AvatarKey, &u.Status,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.HasAvatar = u.AvatarKey != nil && *u.AvatarKey != ""
	return nil
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create adds an active admin with an argon2id password hash.
func (s *AdminUserService) Create(ctx context.Context, email, displayName, password string) (*model.AdminUser, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email is not a valid address")
	}
	if len(password) < 6 {
		return nil, invalid("password must be at least 6 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	u := &model.AdminUser{
		ID:           platform.NewName("adm_"),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Status:       model.AdminActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO admin_users (id, email, password_hash, display_name, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.Status, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, dbErr("create admin user", err)
	}
	return u, nil
}

func (s *AdminUserService) GetByID(ctx context.Context, id string) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := scanAdmin(s.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id), &u); err != nil {
		return nil, dbErr(fmt.Sprintf("get admin user %s", id), err)
	}
	return &u, nil
}

func (s *AdminUserService) GetByEmail(ctx context.Context, email string) (*model.AdminUser, error) {
	var u model.AdminUser
	row := s.db.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE email = $1`, NormalizeEmail(email))
	if err := scanAdmin(row, &u); err != nil {
		return nil, dbErr("get admin user by email", err)
	}
	return &u, nil
}

// UpdateProfile changes the display name.
func (s *AdminUserService) UpdateProfile(ctx context.Context, id, displayName string) (*model.AdminUser, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len(displayName) > 100 {
		return nil, invalid("display_name must be 1-100 characters")
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE admin_users SET display_name = $2, updated_at = now() WHERE id = $1`, id, displayName)
	if err != nil {
		return nil, fmt.Errorf("update admin user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("update admin user %s: %w", id, ErrNotFound)
	}
	return s.GetByID(ctx, id)
}

func (s *AdminUserService) RecordLogin(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `UPDATE admin_users SET last_login_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("record login for %s: %w", id, err)
	}
	return nil
}

// DecodeDataURL parses a base64 image data URL and checks its type and size.
// The declared type must match the sniffed content.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", invalid("avatar must be a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", invalid("avatar must be a data URL")
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", invalid("avatar data URL must be base64 encoded")
	}
	if !avatarTypes[contentType] {
		return nil, "", invalid("avatar type %q is not supported", contentType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxAvatarBytes+3 {
		return nil, "", invalid("avatar exceeds %d bytes", MaxAvatarBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", invalid("avatar is not valid base64")
	}
	if len(data) > MaxAvatarBytes {
		return nil, "", invalid("avatar exceeds %d bytes", MaxAvatarBytes)
	}
	if sniffed := http.DetectContentType(data); sniffed != contentType {
		return nil, "", invalid("avatar content is %s, not %s", sniffed, contentType)
	}
	return data, contentType, nil
}

// SetAvatar stores the image from a data URL and points the admin at it.
func (s *AdminUserService) SetAvatar(ctx context.Context, id, dataURL string) (*model.AdminUser, error) {
	if s.avatars == nil {
		return nil, invalid("avatar storage is not configured")
	}
	data, contentType, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	key := "avatars/" + id
	if err := s.avatars.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("store avatar for %s: %w", id, err)
	}
	if _, err := s.db.Exec(ctx,
		`UPDATE admin_users SET avatar_key = $2, updated_at = now() WHERE id = $1`, id, key); err != nil {
		return nil, fmt.Errorf("set avatar for %s: %w", id, err)
	}
	return s.GetByID(ctx, id)
}

// Avatar opens the stored image. The caller closes the reader.
func (s *AdminUserService) Avatar(ctx context.Context, id string) (io.ReadCloser, string, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !u.HasAvatar || s.avatars == nil {
		return nil, "", fmt.Errorf("avatar for %s: %w", id, ErrNotFound)
	}
	return s.avatars.Get(ctx, *u.AvatarKey)
}
