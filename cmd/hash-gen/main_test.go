package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestResolvePassword(t *testing.T) {
	origGetenv := getenvFn
	defer func() { getenvFn = origGetenv }()

	getenvFn = func(string) string { return "" }
	if _, err := resolvePassword(nil); !errors.Is(err, errNoPassword) {
		t.Fatalf("expected errNoPassword, got %v", err)
	}
	if got, err := resolvePassword([]string{"abc"}); err != nil || got != "abc" {
		t.Fatalf("unexpected arg password: %s %v", got, err)
	}

	getenvFn = func(string) string { return "from-env" }
	if got, err := resolvePassword(nil); err != nil || got != "from-env" {
		t.Fatalf("unexpected env password: %s %v", got, err)
	}
}

func TestGenerateHash(t *testing.T) {
	hash, err := generateHash("my-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("my-pass")); err != nil {
		t.Fatalf("hash mismatch: %v", err)
	}
}

func TestMain_PrintsHash(t *testing.T) {
	origArgs := os.Args
	origStdout := os.Stdout
	defer func() {
		os.Args = origArgs
		os.Stdout = origStdout
	}()

	os.Args = []string{"hash-gen", "my-pass"}
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	main()

	_ = w.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(r)
	text := out.String()
	if !strings.Contains(text, "Bcrypt Hash: $2") {
		t.Fatalf("hash output missing: %s", text)
	}
	if strings.Contains(text, "my-pass") {
		t.Fatalf("password must not be echoed: %s", text)
	}
}

func TestMain_FatalPaths(t *testing.T) {
	origArgs := os.Args
	origFatalf := fatalfFn
	origHash := generateHashFn
	origGetenv := getenvFn
	defer func() {
		os.Args = origArgs
		fatalfFn = origFatalf
		generateHashFn = origHash
		getenvFn = origGetenv
	}()

	var msg string
	fatalfFn = func(format string, args ...interface{}) { msg = fmt.Sprintf(format, args...) }
	getenvFn = func(string) string { return "" }

	os.Args = []string{"hash-gen"}
	main()
	if !strings.Contains(msg, "usage: hash-gen") {
		t.Fatalf("expected usage message, got %q", msg)
	}

	os.Args = []string{"hash-gen", "pw"}
	generateHashFn = func(string) (string, error) { return "", errors.New("rng failure") }
	main()
	if !strings.Contains(msg, "Failed to hash password: rng failure") {
		t.Fatalf("expected hash failure message, got %q", msg)
	}
}
