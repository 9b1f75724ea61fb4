package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"gradvillage.backend/pkg/crypto"
)

var (
	printfFn       = fmt.Printf
	generateHashFn = generateHash
	fatalfFn       = log.Fatalf
	getenvFn       = os.Getenv
)

var errNoPassword = errors.New("usage: hash-gen <password> (or set ADMIN_PASSWORD)")

// resolvePassword takes the first argument, falling back to ADMIN_PASSWORD.
func resolvePassword(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if p := getenvFn("ADMIN_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errNoPassword
}

func generateHash(password string) (string, error) {
	return crypto.HashPassword(password)
}

func main() {
	password, err := resolvePassword(os.Args[1:])
	if err != nil {
		fatalfFn("%v", err)
		return
	}

	hash, err := generateHashFn(password)
	if err != nil {
		fatalfFn("Failed to hash password: %v", err)
		return
	}

	printfFn("Bcrypt Hash: %s\n", hash)
}
