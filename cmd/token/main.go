// Command token mints a bearer token for the /charges API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"bancard-connector/internal/auth"

	"github.com/joho/godotenv"
)

var errMissingMerchant = errors.New("-merchant is required")

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Getenv("JWT_SECRET"), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, secret string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	merchant := fs.String("merchant", "", "merchant identifier stored as the token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *merchant == "" {
		return errMissingMerchant
	}

	token, err := auth.IssueMerchantToken([]byte(secret), *merchant, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
