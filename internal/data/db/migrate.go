package db

import (
	types "github.com/ostrakov/socialmesh-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrateAll creates or updates every table. The reaction model backs two
// tables (post- and comment-targeted ledgers), so it is migrated once per
// table and its per-ledger uniqueness index is created by hand; gorm would
// otherwise generate the same index name for both tables.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},

		&types.ChatSession{},
		&types.ChatSessionMember{},
		&types.Message{},

		&types.Post{},
		&types.Comment{},
	); err != nil {
		return err
	}

	for _, table := range []string{types.PostReactionTable, types.CommentReactionTable} {
		if err := db.Table(table).AutoMigrate(&types.Reaction{}); err != nil {
			return err
		}
		if err := db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + table + `_user_target ON ` + table + ` (user_id, target_id)`,
		).Error; err != nil {
			return err
		}
	}
	return nil
}
