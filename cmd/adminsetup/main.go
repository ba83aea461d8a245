// Command adminsetup prints the environment entries that enable the admin API:
// a bcrypt hash of the admin password and, optionally, a fresh TOTP secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fuswap/backend/internal/services/auth"
	"github.com/fuswap/backend/internal/utils"
)

func main() {
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (defaults to $ADMIN_PASSWORD)")
	withTOTP := flag.Bool("totp", true, "also generate a TOTP secret")
	account := flag.String("account", "admin", "account name shown in the authenticator app")
	flag.Parse()

	if len(*password) < 12 {
		log.Fatal("admin password must be at least 12 characters")
	}

	hash, err := auth.NewBcryptVerifier().Hash(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	// Single quotes stop godotenv from expanding the $ segments of the hash
	fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", hash)

	if !*withTOTP {
		return
	}

	secret, url, err := utils.GenerateTOTPSecret(utils.DefaultMFAConfig(), *account)
	if err != nil {
		log.Fatalf("Failed to generate TOTP secret: %v", err)
	}
	fmt.Printf("ADMIN_TOTP_SECRET=%s\n", secret)
	fmt.Fprintf(os.Stderr, "Add to your authenticator app: %s\n", url)
}
