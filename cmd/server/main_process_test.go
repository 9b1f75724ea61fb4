package main

import (
	"os"
	"os/exec"
	"testing"
)

func TestMainProcess_ExitsWhenDatabaseUnreachable(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") == "1" {
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainProcess_ExitsWhenDatabaseUnreachable")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"SERVER_ENV=development",
		"REDIS_URL=redis://127.0.0.1:0",
		"STORAGE_LOCAL_DIR="+t.TempDir(),
		// Nothing listens on port 1, so the startup ping fails fast.
		"DB_HOST=127.0.0.1",
		"DB_PORT=1",
		"DB_USER=postgres",
		"DB_PASSWORD=postgres",
		"DB_NAME=gradvillage",
		"DB_SSLMODE=disable",
	)

	err := cmd.Run()
	if err == nil {
		t.Fatalf("expected helper process to exit with error")
	}
}
