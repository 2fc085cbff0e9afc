package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Mint a bcrypt hash for seeding admin accounts directly into the users
// table; admin accounts are never created through the public register
// endpoint.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: hash-password <password>")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(string(hash))
}
