package main

import (
	"context"
	"log"
	"os"

	"github.com/3gr1v750v/api-yamdb-docker/internal/config"
	"github.com/3gr1v750v/api-yamdb-docker/internal/database"
	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
)

// seed provisions the first admin account. Running it again is a no-op.
func main() {
	cfg := config.Load()
	database.Connect(cfg)
	if err := database.Migrate(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminUsername == "" || adminEmail == "" {
		log.Fatal("Missing environment variables: ADMIN_USERNAME, ADMIN_EMAIL")
	}
	if err := service.ValidateUsername(adminUsername); err != nil {
		log.Fatal("Invalid ADMIN_USERNAME: ", err)
	}
	if err := service.ValidateEmail(adminEmail); err != nil {
		log.Fatal("Invalid ADMIN_EMAIL: ", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(database.DB)

	existing, err := users.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatal("Failed to look up admin:", err)
	}
	if existing == nil {
		existing, err = users.GetUserByUsername(ctx, adminUsername)
		if err != nil {
			log.Fatal("Failed to look up admin:", err)
		}
	}
	if existing != nil {
		if !existing.IsAdmin() {
			if err := users.UpdateUser(ctx, existing, map[string]interface{}{"role": models.RoleAdmin}); err != nil {
				log.Fatal("Failed to promote existing user:", err)
			}
			log.Println("Existing user promoted to admin:", existing.Username)
			return
		}
		log.Println("Admin user already exists:", existing.Username)
		return
	}

	admin := models.User{
		Username: adminUsername,
		Email:    adminEmail,
		Role:     models.RoleAdmin,
		IsStaff:  true,
	}
	if err := users.CreateUser(ctx, &admin); err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Println("Admin user created successfully")
	log.Println("   Username:", admin.Username)
	log.Println("   Email:", admin.Email)
	log.Println("   Request a confirmation code via POST /api/v1/auth/signup to log in")
}
