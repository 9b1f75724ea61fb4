package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"gradvillage.backend/internal/config"
	"gradvillage.backend/internal/domain/entities"
	"gradvillage.backend/internal/infrastructure/datasources/postgres"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/internal/infrastructure/repositories"
	"gradvillage.backend/internal/usecases"
	"gradvillage.backend/pkg/jwt"
)

const passwordEnv = "ADMIN_PASSWORD"

var openAdminDB = postgres.NewConnection

var openAdminSQLDB = func(db *gorm.DB) (io.Closer, error) {
	return db.DB()
}

type adminRuntime interface {
	EnsureAdmin(ctx context.Context, email, name, password string) (*entities.User, error)
}

type createAdminDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	getenv  func(string) string
	prepare func(cfg *config.Config) (adminRuntime, io.Closer, error)
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func prepareRuntime(cfg *config.Config) (adminRuntime, io.Closer, error) {
	db, err := openAdminDB(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect db: %w", err)
	}

	sqlDB, err := openAdminSQLDB(db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.SessionExpiry)
	authUsecase := usecases.NewAuthUsecase(repositories.NewUserRepository(db), repositories.NewStudentRepository(db), jwtService)
	return authUsecase, sqlDB, nil
}

func defaultCreateAdminDeps() createAdminDeps {
	return createAdminDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		getenv:  os.Getenv,
		prepare: prepareRuntime,
		out:     os.Stdout,
	}
}

func runCreateAdmin(args []string, deps createAdminDeps) error {
	def := defaultCreateAdminDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.getenv == nil {
		deps.getenv = def.getenv
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	emailFlag := fs.String("email", "", "admin email (required)")
	nameFlag := fs.String("name", "", "display name (optional)")
	passwordFlag := fs.String("password", "", "password; defaults to $"+passwordEnv)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *emailFlag == "" {
		return fmt.Errorf("--email is required")
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	password := *passwordFlag
	if password == "" {
		password = deps.getenv(passwordEnv)
	}
	if password == "" {
		return fmt.Errorf("--password or %s is required", passwordEnv)
	}

	cfg := deps.loadCfg()
	runtime, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	user, err := runtime.EnsureAdmin(context.Background(), *emailFlag, *nameFlag, password)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	_, _ = fmt.Fprintln(deps.out, "Admin account ready")
	_, _ = fmt.Fprintf(deps.out, "user_id=%s\n", user.ID.String())
	_, _ = fmt.Fprintf(deps.out, "email=%s\n", user.Email)
	_, _ = fmt.Fprintf(deps.out, "role=%s\n", user.Role)
	return nil
}

func main() {
	if err := runCreateAdmin(os.Args[1:], defaultCreateAdminDeps()); err != nil {
		log.Fatal(err)
	}
}
