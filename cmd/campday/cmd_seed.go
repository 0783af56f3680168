/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/friendsincode/campday/internal/auth"
	"github.com/friendsincode/campday/internal/db"
	"github.com/friendsincode/campday/internal/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users, activities, and days from a YAML file",
	Long:  "Seed the database from a YAML file describing users, activities, and camp days with their slots. Existing rows with the same email or name are left untouched.",
	RunE:  runSeed,
}

var (
	seedFilePath string
	seedDryRun   bool
)

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedFilePath, "file", "", "Path to the seed YAML file (required)")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Parse and validate the file without writing")
	seedCmd.MarkFlagRequired("file")
}

type seedFile struct {
	Users []struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
	Activities []struct {
		Name            string `yaml:"name"`
		Category        string `yaml:"category"`
		DurationMinutes int    `yaml:"durationMinutes"`
		Description     string `yaml:"description"`
	} `yaml:"activities"`
	Days []struct {
		CampID string `yaml:"campId"`
		Name   string `yaml:"name"`
		Date   string `yaml:"date"`
		Slots  []struct {
			Start    string `yaml:"start"`
			End      string `yaml:"end"`
			Title    string `yaml:"title"`
			Notes    string `yaml:"notes"`
			Activity string `yaml:"activity"` // activity name, resolved against the activities section
		} `yaml:"slots"`
	} `yaml:"days"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	raw, err := os.ReadFile(seedFilePath)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	if err := validateSeed(&seed); err != nil {
		return err
	}

	if seedDryRun {
		logger.Info().
			Int("users", len(seed.Users)).
			Int("activities", len(seed.Activities)).
			Int("days", len(seed.Days)).
			Msg("seed file valid, dry run only")
		return nil
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	return database.Transaction(func(tx *gorm.DB) error {
		activityIDs, err := seedActivities(tx, &seed)
		if err != nil {
			return err
		}
		if err := seedUsers(tx, &seed); err != nil {
			return err
		}
		return seedDays(tx, &seed, activityIDs)
	})
}

func validateSeed(seed *seedFile) error {
	for _, u := range seed.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("every user needs an email and a password")
		}
		switch models.RoleName(u.Role) {
		case models.RoleAdmin, models.RoleOrganizer, models.RoleLeader:
		default:
			return fmt.Errorf("user %s: unknown role %q", u.Email, u.Role)
		}
	}

	names := make(map[string]bool, len(seed.Activities))
	for _, a := range seed.Activities {
		if a.Name == "" {
			return fmt.Errorf("every activity needs a name")
		}
		names[a.Name] = true
	}

	for _, d := range seed.Days {
		if d.Name == "" || d.Date == "" {
			return fmt.Errorf("every day needs a name and a date")
		}
		for i, s := range d.Slots {
			slot := models.Slot{Start: s.Start, End: s.End, Title: s.Title}
			if err := slot.Validate(); err != nil {
				return fmt.Errorf("day %s slot %d: %w", d.Name, i+1, err)
			}
			if s.Activity != "" && !names[s.Activity] {
				return fmt.Errorf("day %s slot %d: unknown activity %q", d.Name, i+1, s.Activity)
			}
		}
	}
	return nil
}

func seedActivities(tx *gorm.DB, seed *seedFile) (map[string]string, error) {
	ids := make(map[string]string, len(seed.Activities))
	for _, a := range seed.Activities {
		var existing models.Activity
		err := tx.Where("name = ?", a.Name).First(&existing).Error
		if err == nil {
			ids[a.Name] = existing.ID
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("look up activity %s: %w", a.Name, err)
		}

		activity := models.Activity{
			ID:              uuid.NewString(),
			Name:            a.Name,
			Category:        a.Category,
			DurationMinutes: a.DurationMinutes,
			Description:     a.Description,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return nil, fmt.Errorf("create activity %s: %w", a.Name, err)
		}
		ids[a.Name] = activity.ID
		logger.Info().Str("name", a.Name).Msg("activity created")
	}
	return ids, nil
}

func seedUsers(tx *gorm.DB, seed *seedFile) error {
	for _, u := range seed.Users {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("look up user %s: %w", u.Email, err)
		}
		if count > 0 {
			continue
		}

		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		user := models.User{
			ID:       uuid.NewString(),
			Email:    u.Email,
			Password: hash,
			Role:     models.RoleName(u.Role),
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user %s: %w", u.Email, err)
		}
		logger.Info().Str("email", u.Email).Str("role", u.Role).Msg("user created")
	}
	return nil
}

func seedDays(tx *gorm.DB, seed *seedFile, activityIDs map[string]string) error {
	for _, d := range seed.Days {
		var count int64
		if err := tx.Model(&models.Day{}).Where("name = ? AND date = ?", d.Name, d.Date).Count(&count).Error; err != nil {
			return fmt.Errorf("look up day %s: %w", d.Name, err)
		}
		if count > 0 {
			continue
		}

		day := models.Day{
			ID:     uuid.NewString(),
			CampID: d.CampID,
			Name:   d.Name,
			Date:   d.Date,
		}
		if err := tx.Create(&day).Error; err != nil {
			return fmt.Errorf("create day %s: %w", d.Name, err)
		}

		for i, s := range d.Slots {
			slot := models.Slot{
				ID:         uuid.NewString(),
				DayID:      day.ID,
				OrderInDay: i + 1,
				Start:      s.Start,
				End:        s.End,
				ActivityID: activityIDs[s.Activity],
				Title:      s.Title,
				Notes:      s.Notes,
			}
			if err := tx.Create(&slot).Error; err != nil {
				return fmt.Errorf("create slot %d of day %s: %w", i+1, d.Name, err)
			}
		}
		logger.Info().Str("name", d.Name).Str("date", d.Date).Int("slots", len(d.Slots)).Msg("day created")
	}
	return nil
}
