package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/edvin/saasadmin/internal/adminclient"
)

var (
	apiURL  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:           "admin-cli",
	Short:         "Command line access to the SaaS admin API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", os.Getenv("ADMIN_API_URL"), "Admin API base URL (default: saved session, then http://localhost:8090)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log HTTP requests")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// resolveURL prefers the flag, then the saved session.
func resolveURL(session *adminclient.Session) string {
	if apiURL != "" {
		return apiURL
	}
	if session != nil && session.APIURL != "" {
		return session.APIURL
	}
	return "http://localhost:8090"
}

// sessionClient builds a client from the saved session.
func sessionClient() (*adminclient.Client, *adminclient.Session, error) {
	session, err := adminclient.LoadSession()
	if err != nil {
		return nil, nil, err
	}
	return adminclient.New(resolveURL(session), session.Token, newLogger()), session, nil
}
