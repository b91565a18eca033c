package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/stsphera/notify-engine/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_notification_queue",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.QueueEntryModel{}); err != nil {
					return err
				}
				indexes := []string{
					// Claim path: due pending entries ordered by priority.
					`CREATE INDEX IF NOT EXISTS idx_queue_claim ON notification_queue (status, scheduled_at) WHERE status = 'pending'`,
					`CREATE INDEX IF NOT EXISTS idx_queue_event_type ON notification_queue (event_type)`,
					`CREATE INDEX IF NOT EXISTS idx_queue_project_id ON notification_queue (project_id) WHERE project_id IS NOT NULL`,
					// Retention sweep over terminal entries.
					`CREATE INDEX IF NOT EXISTS idx_queue_retention ON notification_queue (updated_at) WHERE status IN ('sent', 'skipped', 'failed')`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.QueueEntryModel{})
			},
		},
		{
			ID: "000002_create_profiles",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ProfileModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_profiles_telegram_chat_id ON profiles (telegram_chat_id) WHERE telegram_chat_id IS NOT NULL`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ProfileModel{})
			},
		},
		{
			ID: "000003_create_user_roles",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.UserRoleModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_user_roles_role ON user_roles (role)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.UserRoleModel{})
			},
		},
		{
			ID: "000004_create_projects",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.ProjectModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ProjectModel{})
			},
		},
	})

	return m.Migrate()
}
