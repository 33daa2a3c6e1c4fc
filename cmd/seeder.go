package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the permission catalog, default roles and an admin account",
	Long:  `Seed the database with the permission catalog, the ADMIN/MANAGER/USER roles and an initial administrator account. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		_, db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		seedCatalog(db)
		seedRoles(db)
		seedAdminAccount(db, cfg.Security.BCryptCost)
	},
}

var catalogSubjects = []string{"user", "role", "activity", "marketing", "sales", "report"}
var catalogActions = []string{"create", "read", "update", "delete"}

func seedCatalog(db *gorm.DB) {
	for _, subject := range catalogSubjects {
		for _, action := range catalogActions {
			var pid int64
			row := db.Raw("SELECT id FROM permissions WHERE action = ? AND subject = ?", action, subject).Row()
			if err := row.Scan(&pid); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO permissions (action, subject, created_at) VALUES (?, ?, now())", action, subject).Error; err != nil {
				log.Fatalf("failed to insert permission %s:%s: %v", action, subject, err)
			}
		}
	}
	fmt.Println("Permission catalog seeded")
}

// grants lists the catalog slice each default role receives. ADMIN gets
// everything, MANAGER gets team-facing reads plus activity management,
// USER gets activity management only.
var roleGrants = map[string][][2]string{
	"ADMIN": nil,
	"MANAGER": {
		{"create", "activity"}, {"read", "activity"}, {"update", "activity"}, {"delete", "activity"},
		{"read", "user"},
		{"read", "report"},
	},
	"USER": {
		{"create", "activity"}, {"read", "activity"}, {"update", "activity"}, {"delete", "activity"},
	},
}

func seedRoles(db *gorm.DB) {
	for _, name := range []string{"ADMIN", "MANAGER", "USER"} {
		var roleID int64
		row := db.Raw("SELECT id FROM roles WHERE name = ?", name).Row()
		if err := row.Scan(&roleID); err != nil {
			if err := db.Exec("INSERT INTO roles (name, created_at, updated_at) VALUES (?, now(), now())", name).Error; err != nil {
				log.Fatalf("failed to insert role %s: %v", name, err)
			}
			if err := db.Raw("SELECT id FROM roles WHERE name = ?", name).Row().Scan(&roleID); err != nil {
				log.Fatalf("role not found after insert %s: %v", name, err)
			}
			fmt.Println("Seeded role:", name)
		}

		grants := roleGrants[name]
		if grants == nil {
			// ADMIN holds the full catalog.
			for _, subject := range catalogSubjects {
				for _, action := range catalogActions {
					grants = append(grants, [2]string{action, subject})
				}
			}
		}

		for _, grant := range grants {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE action = ? AND subject = ?", grant[0], grant[1]).Row().Scan(&pid); err != nil {
				log.Fatalf("permission not found %s:%s: %v", grant[0], grant[1], err)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?", roleID, pid).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)", roleID, pid).Error; err != nil {
				log.Fatalf("failed to grant %s:%s to role %s: %v", grant[0], grant[1], name, err)
			}
		}
	}
	fmt.Println("Default roles seeded")
}

func seedAdminAccount(db *gorm.DB, bcryptCost int) {
	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@backoffice.local"
	}
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "password"
	}

	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", adminEmail).Row().Scan(&exists); err == nil {
		fmt.Println("Admin account already exists:", adminEmail)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcryptCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	var adminRoleID int64
	if err := db.Raw("SELECT id FROM roles WHERE name = ?", "ADMIN").Row().Scan(&adminRoleID); err != nil {
		log.Fatalf("ADMIN role not found: %v", err)
	}

	if err := db.Exec(
		"INSERT INTO users (employee_id, email, password_hash, first_name, last_name, role_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, 'active', now(), now())",
		"EMP-0001", adminEmail, string(hash), "System", "Administrator", adminRoleID,
	).Error; err != nil {
		log.Fatalf("failed to insert admin account: %v", err)
	}

	fmt.Println("Seeded admin account:", adminEmail)
}
