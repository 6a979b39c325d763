package seeder

import (
	"backend/internal/app/user"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

func (s *Seeder) Seed() error {
	s.logger.Info("Running database seeders...")

	if err := s.seedUsers(); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

func (s *Seeder) seedUsers() error {
	var count int64
	s.db.Model(&user.User{}).Count(&count)
	if count > 0 {
		s.logger.Info("Users already exist, skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := []user.User{
		{Email: "alice@example.com", Name: "Alice", Password: string(hash), Image: ptr("avatars/alice.png")},
		{Email: "bob@example.com", Name: "Bob", Password: string(hash)},
		{Email: "carol@example.com", Name: "Carol", Password: string(hash)},
	}

	if err := s.db.Create(&users).Error; err != nil {
		return err
	}

	s.logger.Info("Seeded users", zap.Int("count", len(users)))
	return nil
}

func ptr(s string) *string {
	return &s
}
