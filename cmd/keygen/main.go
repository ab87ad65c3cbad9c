// Command keygen prints a random secret for APIKEY_HASH_SECRET.
package main

import (
	"encoding/base64"
	"fmt"
	"log"

	"github.com/dmitrymomot/authz/pkg/apikey"
)

func main() {
	secret, err := apikey.GenerateSecret()
	if err != nil {
		log.Fatalf("generate secret: %v", err)
	}
	fmt.Printf("APIKEY_HASH_SECRET=%s\n", base64.StdEncoding.EncodeToString(secret))
}
