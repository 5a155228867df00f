// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	apikeyrepo "github.com/authkeep/authkeep/internal/apikey/repository"
	apikeyservice "github.com/authkeep/authkeep/internal/apikey/service"
	"github.com/authkeep/authkeep/internal/config"
	"github.com/authkeep/authkeep/internal/db"
	identitydomain "github.com/authkeep/authkeep/internal/identity/domain"
	identityrepo "github.com/authkeep/authkeep/internal/identity/repository"
	"github.com/authkeep/authkeep/internal/security"
	tenantdomain "github.com/authkeep/authkeep/internal/tenant/domain"
	tenantrepo "github.com/authkeep/authkeep/internal/tenant/repository"
	userdomain "github.com/authkeep/authkeep/internal/user/domain"
	userrepo "github.com/authkeep/authkeep/internal/user/repository"
)

const (
	devTenantID   = "dev-tenant-001"
	devTenantName = "Dev Tenant"
	devUserEmail  = "dev@example.com"
	devPassword   = "Dev-Passw0rd-Local!"
	devUserID     = "dev-user-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tenants := tenantrepo.NewPostgresRepository(database)
	users := userrepo.NewPostgresRepository(database)
	identities := identityrepo.NewPostgresRepository(database)
	apiKeys := apikeyservice.NewService(apikeyrepo.NewPostgresRepository(database))

	if existing, err := users.GetByEmail(ctx, devTenantID, devUserEmail); err != nil {
		log.Fatalf("seed: check dev user: %v", err)
	} else if existing != nil {
		log.Println("seed: dev user already exists, nothing to do")
		return
	}

	if t, err := tenants.GetByID(ctx, devTenantID); err != nil {
		log.Fatalf("seed: check tenant: %v", err)
	} else if t == nil {
		tenant := &tenantdomain.Tenant{
			ID:        devTenantID,
			Name:      devTenantName,
			Status:    tenantdomain.TenantStatusActive,
			CreatedAt: time.Now().UTC(),
		}
		if err := tenants.Create(ctx, tenant); err != nil {
			log.Fatalf("seed: create tenant: %v", err)
		}
		log.Printf("seed: created tenant %s", devTenantID)
	}

	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        devUserID,
		TenantID:  devTenantID,
		Email:     devUserEmail,
		Name:      "Dev User",
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("seed: create user: %v", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}
	identity := &identitydomain.Identity{
		ID:           uuid.New().String(),
		TenantID:     devTenantID,
		UserID:       devUserID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   devUserEmail,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if err := identities.Create(ctx, identity); err != nil {
		log.Fatalf("seed: create identity: %v", err)
	}

	key, raw, err := apiKeys.Generate(ctx, devTenantID, devUserID, "dev-key", []string{"admin"}, nil)
	if err != nil {
		log.Fatalf("seed: create api key: %v", err)
	}

	log.Printf("seed: created user %s (%s)", devUserID, devUserEmail)
	fmt.Println("dev credentials:")
	fmt.Printf("  tenant:   %s\n", devTenantID)
	fmt.Printf("  email:    %s\n", devUserEmail)
	fmt.Printf("  password: %s\n", devPassword)
	fmt.Printf("  api key:  %s (id %s, admin scope)\n", raw, key.ID)
}
