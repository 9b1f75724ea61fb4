package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gradvillage.backend/internal/config"
	"gradvillage.backend/internal/domain/entities"
)

type fakeAdminRuntime struct {
	err   error
	calls int
	email string
	name  string
	pass  string
}

func (f *fakeAdminRuntime) EnsureAdmin(_ context.Context, email, name, password string) (*entities.User, error) {
	f.calls++
	f.email, f.name, f.pass = email, name, password
	if f.err != nil {
		return nil, f.err
	}
	return &entities.User{ID: uuid.New(), Email: email, Name: name, Role: entities.UserRoleAdmin}, nil
}

func depsWith(rt *fakeAdminRuntime, env map[string]string, out io.Writer) createAdminDeps {
	return createAdminDeps{
		loadEnv: func() error { return errors.New("no .env") },
		loadCfg: func() *config.Config { return &config.Config{} },
		getenv:  func(k string) string { return env[k] },
		prepare: func(*config.Config) (adminRuntime, io.Closer, error) { return rt, nopCloser{}, nil },
		out:     out,
	}
}

func TestRunCreateAdmin_Branches(t *testing.T) {
	t.Run("flag parse error", func(t *testing.T) {
		err := runCreateAdmin([]string{"-unknown-flag"}, depsWith(&fakeAdminRuntime{}, nil, io.Discard))
		if err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("email required", func(t *testing.T) {
		rt := &fakeAdminRuntime{}
		err := runCreateAdmin([]string{"-password", "longenough"}, depsWith(rt, nil, io.Discard))
		if err == nil || !strings.Contains(err.Error(), "--email is required") {
			t.Fatalf("expected email error, got %v", err)
		}
		if rt.calls != 0 {
			t.Fatal("runtime must not be called")
		}
	})

	t.Run("password required", func(t *testing.T) {
		err := runCreateAdmin([]string{"-email", "ops@gradvillage.org"}, depsWith(&fakeAdminRuntime{}, nil, io.Discard))
		if err == nil || !strings.Contains(err.Error(), passwordEnv) {
			t.Fatalf("expected password error, got %v", err)
		}
	})

	t.Run("prepare error", func(t *testing.T) {
		deps := depsWith(&fakeAdminRuntime{}, nil, io.Discard)
		deps.prepare = func(*config.Config) (adminRuntime, io.Closer, error) { return nil, nil, errors.New("db failed") }
		err := runCreateAdmin([]string{"-email", "ops@gradvillage.org", "-password", "longenough"}, deps)
		if err == nil || !strings.Contains(err.Error(), "db failed") {
			t.Fatalf("expected prepare error, got %v", err)
		}
	})

	t.Run("ensure error", func(t *testing.T) {
		rt := &fakeAdminRuntime{err: errors.New("boom")}
		err := runCreateAdmin([]string{"-email", "ops@gradvillage.org", "-password", "longenough"}, depsWith(rt, nil, io.Discard))
		if err == nil || !strings.Contains(err.Error(), "failed to create admin") {
			t.Fatalf("expected ensure error, got %v", err)
		}
	})

	t.Run("password from env", func(t *testing.T) {
		rt := &fakeAdminRuntime{}
		var out bytes.Buffer
		err := runCreateAdmin([]string{"-email", "ops@gradvillage.org", "-name", "Ops"},
			depsWith(rt, map[string]string{passwordEnv: "from-env-secret"}, &out))
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if rt.pass != "from-env-secret" || rt.name != "Ops" {
			t.Fatalf("unexpected runtime args: %+v", rt)
		}
		if !strings.Contains(out.String(), "Admin account ready") || !strings.Contains(out.String(), "role=admin") {
			t.Fatalf("unexpected output: %s", out.String())
		}
	})

	t.Run("flag wins over env and nil closer", func(t *testing.T) {
		rt := &fakeAdminRuntime{}
		deps := depsWith(rt, map[string]string{passwordEnv: "from-env-secret"}, io.Discard)
		deps.prepare = func(*config.Config) (adminRuntime, io.Closer, error) { return rt, nil, nil }
		err := runCreateAdmin([]string{"-email", "ops@gradvillage.org", "-password", "from-flag-secret"}, deps)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if rt.pass != "from-flag-secret" {
			t.Fatalf("expected flag password, got %s", rt.pass)
		}
	})
}

func TestPrepareRuntime_CreatesAdminOnSQLite(t *testing.T) {
	origOpen := openAdminDB
	defer func() { openAdminDB = origOpen }()
	openAdminDB = func(config.DatabaseConfig) (*gorm.DB, error) {
		dsn := fmt.Sprintf("file:create_admin_%d?mode=memory&cache=shared", time.Now().UnixNano())
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	}

	cfg := &config.Config{}
	cfg.Database.AutoMigrate = true
	cfg.JWT.Secret = "secret"
	cfg.JWT.SessionExpiry = time.Hour

	runtime, closer, err := prepareRuntime(cfg)
	if err != nil {
		t.Fatalf("expected prepare success, got %v", err)
	}
	defer closer.Close()

	user, err := runtime.EnsureAdmin(context.Background(), "Ops@GradVillage.org", "Ops", "correct-horse")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if user.Role != entities.UserRoleAdmin || user.Email != "ops@gradvillage.org" {
		t.Fatalf("unexpected user: %+v", user)
	}

	again, err := runtime.EnsureAdmin(context.Background(), "ops@gradvillage.org", "", "another-password")
	if err != nil {
		t.Fatalf("ensure admin twice: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("expected existing account to be reused")
	}
}

func TestPrepareRuntime_SQLDBInitError(t *testing.T) {
	origOpen := openAdminDB
	origOpenSQL := openAdminSQLDB
	defer func() {
		openAdminDB = origOpen
		openAdminSQLDB = origOpenSQL
	}()

	openAdminDB = func(config.DatabaseConfig) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:create_admin_sql_err?mode=memory&cache=shared"), &gorm.Config{})
	}
	openAdminSQLDB = func(*gorm.DB) (io.Closer, error) {
		return nil, errors.New("sql db init failed")
	}

	_, _, err := prepareRuntime(&config.Config{})
	if err == nil || !strings.Contains(err.Error(), "failed to init sql db") {
		t.Fatalf("expected sql db init error, got %v", err)
	}
}

func TestMain_ExitsWhenEmailMissing(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_CREATE_ADMIN") == "1" {
		os.Args = []string{"create-admin"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsWhenEmailMissing")
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_CREATE_ADMIN=1")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected helper process to fail when --email is missing")
	}
}

func TestMain_ExitsOnDBConnectionFailure(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_CREATE_ADMIN") == "2" {
		os.Args = []string{"create-admin", "-email", "ops@gradvillage.org", "-password", "longenough"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsOnDBConnectionFailure")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_CREATE_ADMIN=2",
		"DB_HOST=127.0.0.1",
		"DB_PORT=1",
		"DB_USER=postgres",
		"DB_PASSWORD=postgres",
		"DB_NAME=gradvillage",
		"DB_SSLMODE=disable",
	)
	if err := cmd.Run(); err == nil {
		t.Fatal("expected helper process to fail on DB connection")
	}
}
