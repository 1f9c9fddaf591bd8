package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"time_entries", "customer_assignments", "invitations", "customers", "working_schedules", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminID := ensureUser(db, "admin@tim.local", "Ada Admin", `["admin"]`, string(hash))
		managerID := ensureUser(db, "manager@tim.local", "Mara Manager", `["account_manager"]`, string(hash))
		engineerID := ensureUser(db, "engineer@tim.local", "Eli Engineer", `["engineer"]`, string(hash))

		scheduleID := seedSchedule(db, adminID)
		customerID := seedCustomer(db, adminID, managerID, scheduleID)

		var exists int
		row := db.Raw("SELECT 1 FROM customer_assignments WHERE customer_id = ? AND user_id = ?", customerID, engineerID).Row()
		if err := row.Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO customer_assignments (customer_id, user_id) VALUES (?, ?)",
				customerID, engineerID).Error; err != nil {
				log.Fatalf("failed to assign engineer to customer: %v", err)
			}
			fmt.Println("Assigned engineer to seeded customer")
		}

		fmt.Println("Seed complete. Users admin@tim.local, manager@tim.local and engineer@tim.local all use password:", password)
	},
}

func ensureUser(db *gorm.DB, email, name, rolesJSON, passwordHash string) string {
	var id string
	row := db.Raw("SELECT id FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&id); err == nil {
		fmt.Println("user already exists:", email)
		return id
	}

	id = uuid.NewString()
	if err := db.Exec(
		"INSERT INTO users (id, email, name, password_hash, roles, timezone, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 'UTC', true, now(), now())",
		id, email, name, passwordHash, rolesJSON).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
	return id
}

func seedSchedule(db *gorm.DB, createdBy string) string {
	var id string
	row := db.Raw("SELECT id FROM working_schedules WHERE name = ?", "Standard Week").Row()
	if err := row.Scan(&id); err == nil {
		return id
	}

	id = uuid.NewString()
	config := `{"workingDays":["monday","tuesday","wednesday","thursday","friday"],"hoursPerDay":8}`
	if err := db.Exec(
		"INSERT INTO working_schedules (id, name, timezone, schedule_config, created_by, created_at, updated_at) VALUES (?, 'Standard Week', 'UTC', ?, ?, now(), now())",
		id, config, createdBy).Error; err != nil {
		log.Fatalf("failed to insert working schedule: %v", err)
	}
	fmt.Println("Seeded working schedule: Standard Week")
	return id
}

func seedCustomer(db *gorm.DB, createdBy, accountManagerID, scheduleID string) string {
	var id string
	row := db.Raw("SELECT id FROM customers WHERE name = ?", "Acme Corp").Row()
	if err := row.Scan(&id); err == nil {
		return id
	}

	id = uuid.NewString()
	billing := `{"hourlyRate":95,"currency":"USD","paymentTerms":"net30"}`
	contact := `{"email":"billing@acme.example","phone":"+1-555-0100"}`
	if err := db.Exec(
		"INSERT INTO customers (id, name, status, contact_info, billing_info, account_manager_id, working_schedule_id, created_by, created_at, updated_at) VALUES (?, 'Acme Corp', 'active', ?, ?, ?, ?, ?, now(), now())",
		id, contact, billing, accountManagerID, scheduleID, createdBy).Error; err != nil {
		log.Fatalf("failed to insert customer: %v", err)
	}
	fmt.Println("Seeded customer: Acme Corp")
	return id
}
