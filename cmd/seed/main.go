// Command seed loads the gym's areas and creates a staff account. Running it
// again leaves existing rows alone.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/centralrock/route-tracker/internal/config"
	"github.com/centralrock/route-tracker/internal/database"
	"github.com/centralrock/route-tracker/internal/models"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedArea struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func main() {
	areasPath := flag.String("areas", "", "JSON file with [{\"name\": ..., \"description\": ...}]")
	flag.Parse()

	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := database.Connect(cfg); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	list, err := loadAreas(*areasPath, cfg.AreaOrder)
	if err != nil {
		slog.Error("Failed to read areas", "path", *areasPath, "error", err)
		os.Exit(1)
	}

	created, err := seedAreas(database.DB, list)
	if err != nil {
		slog.Error("Failed to seed areas", "error", err)
		os.Exit(1)
	}
	slog.Info("Areas seeded", "created", created, "total", len(list))

	username := os.Getenv("SEED_ADMIN_USERNAME")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if username == "" || password == "" {
		slog.Info("SEED_ADMIN_USERNAME/SEED_ADMIN_PASSWORD not set, skipping staff account")
		return
	}
	if err := seedStaff(context.Background(), database.DB, username, os.Getenv("SEED_ADMIN_EMAIL"), password); err != nil {
		slog.Error("Failed to seed staff account", "error", err)
		os.Exit(1)
	}
}

// loadAreas reads the areas file, or falls back to the configured names.
func loadAreas(path string, names []string) ([]seedArea, error) {
	if path == "" {
		list := make([]seedArea, len(names))
		for i, name := range names {
			list[i] = seedArea{Name: name}
		}
		return list, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []seedArea
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func seedAreas(db *gorm.DB, list []seedArea) (int, error) {
	created := 0
	for _, a := range list {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		area := models.Area{Name: name, Description: a.Description}
		result := db.Where(models.Area{Name: name}).FirstOrCreate(&area)
		if result.Error != nil {
			return created, result.Error
		}
		created += int(result.RowsAffected)
	}
	return created, nil
}

func seedStaff(ctx context.Context, db *gorm.DB, username, email, password string) error {
	if email == "" {
		email = username + "@localhost"
	}

	var user models.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		slog.Info("Staff account already exists", "username", username)
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user = models.User{
			Username: username,
			Email:    strings.ToLower(email),
			Password: string(hash),
			IsStaff:  true,
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}
		slog.Info("Staff account created", "username", username)
	default:
		return err
	}

	result, err := services.NewMemberService(db).EnsureMemberProfile(ctx, &user)
	if err != nil {
		return err
	}
	if result.Created {
		slog.Info("Staff member profile created", "memberNumber", result.Member.MemberNumber)
	}
	return nil
}
