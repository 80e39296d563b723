// Command admintoken prints a bearer token for the admin API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/susu3304/tipbot/internal/api"
	"github.com/susu3304/tipbot/internal/config"
)

func main() {
	_ = godotenv.Load()

	defaultSecret := os.Getenv("JWT_SECRET")
	if defaultSecret == "" {
		defaultSecret = config.DefaultJWTSecret
	}

	secret := flag.String("secret", defaultSecret, "HS256 signing secret (defaults to $JWT_SECRET)")
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	token, err := api.IssueToken([]byte(*secret), *subject, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
