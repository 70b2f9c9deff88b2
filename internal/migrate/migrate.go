package migrate

import (
	"octopus-backend/internal/conversation"
	"octopus-backend/internal/message"
	"octopus-backend/internal/push"
	"octopus-backend/internal/shared/db"
	"octopus-backend/internal/social"
)

func AutoMigrateAll(s *db.Store) error {
	return s.Base.AutoMigrate(
		&message.Message{},
		&conversation.Conversation{},
		&push.Token{},
		&social.Notification{},
	)
}
