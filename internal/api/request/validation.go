package request

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/edvin/saasadmin/internal/core"
	"github.com/edvin/saasadmin/internal/platform"
)

// MaxBodyBytes bounds JSON request bodies. Avatar uploads are the largest.
const MaxBodyBytes = 4 << 20

var validate = validator.New()

func init() {
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return platform.ValidSlug(fl.Field().String())
	})
	validate.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return core.ValidOTP(fl.Field().String())
	})
}

func Decode(r *http.Request, v any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
