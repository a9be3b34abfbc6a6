package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/edvin/saasadmin/internal/adminclient"
	"github.com/edvin/saasadmin/internal/wizard"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email, one-time code and password",
	Long: `Sign in to the admin API.

The code step accepts the 6 digits (pasting the whole code works), "r" to
request a new code once the cooldown has passed, and "b" to go back and
change the email. An empty email line keeps the previous address and an
empty password goes back to the code step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := resolveURL(nil)
		client := adminclient.New(url, "", newLogger())

		w, err := runLogin(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), client, terminalSecret(cmd.InOrStdin(), cmd.OutOrStdout()))
		if err != nil {
			return err
		}

		if err := adminclient.SaveSession(&adminclient.Session{
			APIURL:  url,
			Email:   w.Email(),
			Token:   w.Token(),
			SavedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", w.Email())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := adminclient.ClearSession(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

// terminalSecret reads the password without echo when in is a terminal.
// It returns nil for piped input, which then goes through the line reader.
func terminalSecret(in io.Reader, out io.Writer) func() (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func() (string, error) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		return string(b), err
	}
}

// runLogin drives the wizard from line input until it reaches StepDone or
// the input ends. secret, when set, reads the password instead of in.
func runLogin(ctx context.Context, in io.Reader, out io.Writer, backend wizard.Backend, secret func() (string, error)) (*wizard.Wizard, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	w := wizard.New(backend)
	lines := bufio.NewScanner(in)

	read := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(lines.Text()), nil
	}
	report := func(err error) {
		if err != nil {
			fmt.Fprintf(out, "  %s\n", w.Error())
		}
	}

	for w.Step() != wizard.StepDone {
		switch w.Step() {
		case wizard.StepEmail:
			line, err := read("Email: ")
			if err != nil {
				return nil, err
			}
			// An empty line after going back reuses the kept email.
			if line != "" || w.Email() == "" {
				w.SetEmail(line)
			}
			if err := w.SubmitEmail(ctx); err == nil {
				fmt.Fprintf(out, "A sign-in code was sent to %s\n", w.Email())
			} else {
				report(err)
			}

		case wizard.StepOTP:
			line, err := read("Code: ")
			if err != nil {
				return nil, err
			}
			switch line {
			case "b":
				w.Back()
				continue
			case "r":
				if err := w.Resend(ctx); err == nil {
					fmt.Fprintln(out, "A new code was sent")
				} else {
					report(err)
				}
				continue
			}
			clearCode(w)
			w.Paste(0, line)
			report(w.SubmitOTP(ctx))

		case wizard.StepPassword:
			var line string
			var err error
			if secret != nil {
				fmt.Fprint(out, "Password: ")
				line, err = secret()
			} else {
				line, err = read("Password: ")
			}
			if err != nil {
				return nil, err
			}
			if line == "" {
				w.Back()
				continue
			}
			w.SetPassword(line)
			report(w.SubmitPassword(ctx))
		}
	}
	return w, nil
}

// clearCode empties every code cell so a new entry does not mix with the last.
func clearCode(w *wizard.Wizard) {
	for i := wizard.OTPLength - 1; i >= 0; i-- {
		w.Backspace(i)
	}
}
