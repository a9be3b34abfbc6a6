// Package wizard implements the three-step admin login flow: email, one-time
// code, password. It holds no I/O of its own; a Backend performs the calls
// and the wizard only advances when a call succeeds.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Step is a position in the login flow.
type Step int

const (
	StepEmail Step = iota
	StepOTP
	StepPassword
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepEmail:
		return "email"
	case StepOTP:
		return "otp"
	case StepPassword:
		return "password"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

const (
	OTPLength         = 6
	MinPasswordLength = 6
	ResendCooldown    = 60 * time.Second
)

var (
	ErrInvalidEmail     = errors.New("enter a valid email address")
	ErrIncompleteOTP    = errors.New("enter all 6 digits of the code")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrWrongStep        = errors.New("action not available at this step")
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Backend performs the server calls behind each step.
type Backend interface {
	Initiate(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (challenge string, err error)
	Login(ctx context.Context, challenge, password string) (token string, err error)
}

// CooldownError is returned by a Backend when the server refuses to send a
// new code yet.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new code", int(e.RetryAfter.Round(time.Second)/time.Second))
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// Wizard is the login state machine. It is not safe for concurrent use.
type Wizard struct {
	backend Backend
	now     func() time.Time

	step          Step
	email         string
	cells         [OTPLength]byte
	focus         int
	password      string
	challenge     string
	verified      string
	token         string
	inlineErr     string
	cooldownUntil time.Time
}

// New returns a wizard at the email step.
func New(backend Backend, opts ...Option) *Wizard {
	w := &Wizard{backend: backend, now: time.Now}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Wizard) Step() Step       { return w.step }
func (w *Wizard) Email() string    { return w.email }
func (w *Wizard) Token() string    { return w.token }
func (w *Wizard) Focus() int       { return w.focus }
func (w *Wizard) Password() string { return w.password }

// Error returns the inline error of the current step, or "".
func (w *Wizard) Error() string { return w.inlineErr }

func (w *Wizard) fail(err error) error {
	w.inlineErr = err.Error()
	return err
}

// SetEmail updates the email field.
func (w *Wizard) SetEmail(email string) {
	w.email = strings.TrimSpace(email)
	w.inlineErr = ""
}

// SubmitEmail validates the email and asks the backend to send a code.
func (w *Wizard) SubmitEmail(ctx context.Context) error {
	if w.step != StepEmail {
		return ErrWrongStep
	}
	if !ValidEmail(w.email) {
		return w.fail(ErrInvalidEmail)
	}
	if err := w.requestCode(ctx); err != nil {
		return err
	}
	w.step = StepOTP
	w.clearOTP()
	return nil
}

func (w *Wizard) requestCode(ctx context.Context) error {
	if err := w.backend.Initiate(ctx, w.email); err != nil {
		var cd *CooldownError
		if errors.As(err, &cd) {
			w.cooldownUntil = w.now().Add(cd.RetryAfter)
		}
		return w.fail(err)
	}
	w.cooldownUntil = w.now().Add(ResendCooldown)
	w.inlineErr = ""
	return nil
}

// CooldownRemaining is the time left before a new code may be requested.
func (w *Wizard) CooldownRemaining() time.Duration {
	d := w.cooldownUntil.Sub(w.now())
	if d < 0 {
		return 0
	}
	return d
}

// CanResend reports whether the resend action is enabled.
func (w *Wizard) CanResend() bool {
	return w.step == StepOTP && w.CooldownRemaining() == 0
}

// Resend requests a new code while on the code step.
func (w *Wizard) Resend(ctx context.Context) error {
	if w.step != StepOTP {
		return ErrWrongStep
	}
	if remaining := w.CooldownRemaining(); remaining > 0 {
		return w.fail(&CooldownError{RetryAfter: remaining})
	}
	if err := w.requestCode(ctx); err != nil {
		return err
	}
	w.clearOTP()
	return nil
}

// OTP returns the digits entered so far, in cell order.
func (w *Wizard) OTP() string {
	var b strings.Builder
	for _, c := range w.cells {
		if c != 0 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Cell returns the digit in cell i, or "".
func (w *Wizard) Cell(i int) string {
	if i < 0 || i >= OTPLength || w.cells[i] == 0 {
		return ""
	}
	return string(w.cells[i])
}

func (w *Wizard) clearOTP() {
	w.cells = [OTPLength]byte{}
	w.focus = 0
	w.challenge = ""
	w.verified = ""
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func clampCell(i int) int {
	return max(0, min(i, OTPLength-1))
}

// Type enters r into cell i. Non-digits are ignored. It returns the cell that
// should receive focus next.
func (w *Wizard) Type(i int, r rune) int {
	i = clampCell(i)
	if w.step != StepOTP || !isDigit(r) {
		w.focus = i
		return i
	}
	w.cells[i] = byte(r)
	w.inlineErr = ""
	w.focus = clampCell(i + 1)
	return w.focus
}

// Backspace clears cell i, or the previous cell when i is already empty.
// It returns the cell that should receive focus.
func (w *Wizard) Backspace(i int) int {
	i = clampCell(i)
	if w.step != StepOTP {
		return i
	}
	if w.cells[i] != 0 {
		w.cells[i] = 0
		w.focus = i
		return i
	}
	if i > 0 {
		w.cells[i-1] = 0
		i--
	}
	w.focus = i
	return i
}

// Paste spreads the digits of text over the cells starting at i. Other
// characters are dropped and nothing is written past the last cell. It
// returns the cell that should receive focus.
func (w *Wizard) Paste(i int, text string) int {
	i = clampCell(i)
	if w.step != StepOTP {
		return i
	}
	pos := i
	for _, r := range text {
		if pos >= OTPLength {
			break
		}
		if !isDigit(r) {
			continue
		}
		w.cells[pos] = byte(r)
		pos++
	}
	if pos > i {
		w.inlineErr = ""
	}
	w.focus = clampCell(pos)
	return w.focus
}

// SubmitOTP verifies the entered code.
func (w *Wizard) SubmitOTP(ctx context.Context) error {
	if w.step != StepOTP {
		return ErrWrongStep
	}
	code := w.OTP()
	if len(code) != OTPLength {
		return w.fail(ErrIncompleteOTP)
	}
	// The server accepts a code once. Coming back with the code that was
	// already verified reuses its challenge.
	if w.challenge == "" || code != w.verified {
		challenge, err := w.backend.VerifyOTP(ctx, w.email, code)
		if err != nil {
			return w.fail(err)
		}
		w.challenge = challenge
		w.verified = code
	}
	w.step = StepPassword
	w.password = ""
	w.inlineErr = ""
	return nil
}

// SetPassword updates the password field.
func (w *Wizard) SetPassword(password string) {
	w.password = password
	w.inlineErr = ""
}

// SubmitPassword completes the login.
func (w *Wizard) SubmitPassword(ctx context.Context) error {
	if w.step != StepPassword {
		return ErrWrongStep
	}
	if len(w.password) < MinPasswordLength {
		return w.fail(ErrPasswordTooShort)
	}
	token, err := w.backend.Login(ctx, w.challenge, w.password)
	if err != nil {
		return w.fail(err)
	}
	w.token = token
	w.challenge = ""
	w.verified = ""
	w.password = ""
	w.inlineErr = ""
	w.step = StepDone
	return nil
}

// Back returns to the previous step, discarding what was entered on the
// current one. Earlier steps keep their values: the email always, and the
// verified code when leaving the password step.
func (w *Wizard) Back() {
	switch w.step {
	case StepOTP:
		w.clearOTP()
		w.step = StepEmail
	case StepPassword:
		w.password = ""
		w.step = StepOTP
	default:
		return
	}
	w.inlineErr = ""
}
