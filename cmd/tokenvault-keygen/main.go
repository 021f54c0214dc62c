// Command tokenvault-keygen prints a fresh base64-encoded AES-256 key
// suitable for TOKENVAULT_ENCRYPTION_KEY.
package main

import (
	"fmt"
	"os"

	"github.com/ericfisherdev/tokenvault/internal/encryption"
)

func main() {
	key, err := encryption.GenerateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate key:", err)
		os.Exit(1)
	}
	fmt.Println(key)
}
