package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"circloth_server/logger"
	"circloth_server/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// actionRow is one authoritative action per (user, item)
type actionRow struct {
	UserID  string `gorm:"primaryKey;type:varchar(64)"`
	ItemID  string `gorm:"primaryKey;type:varchar(64);index:idx_actions_item"`
	Kind    string `gorm:"type:varchar(8);index:idx_actions_kind;not null"`
	ActedAt int64  `gorm:"not null"` // unix micros
}

func (actionRow) TableName() string { return "actions" }

func (r actionRow) toAction() models.Action {
	return models.Action{
		UserID:    r.UserID,
		ItemID:    r.ItemID,
		Kind:      models.ActionKind(r.Kind),
		Timestamp: time.UnixMicro(r.ActedAt).UTC(),
	}
}

// SQLStore implements Store on gorm
type SQLStore struct {
	db *gorm.DB
}

// OpenSQL connects to Postgres or SQLite. driver is "postgres" or "sqlite".
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// in-memory databases exist per connection
		sqlDB.SetMaxOpenConns(1)
	}
	return NewSQLStore(db), nil
}

// NewSQLStore wraps an open gorm connection
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates or updates the schema
func (s *SQLStore) Migrate() error {
	if err := s.db.AutoMigrate(&models.Item{}, &models.User{}, &actionRow{}, &models.Chat{}, &models.Message{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "item %s", id)
	}
	return &item, nil
}

func (s *SQLStore) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	q := s.db.WithContext(ctx).Model(&models.Item{})
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	items := []models.Item{}
	if err := q.Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (s *SQLStore) PutItem(ctx context.Context, item models.Item) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to put item %s: %w", item.ID, err)
	}
	return nil
}

func (s *SQLStore) InsertItem(ctx context.Context, item models.Item) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&item)
	if res.Error != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("item %s: %w", item.ID, ErrConflict)
	}
	return nil
}

// DeleteItem removes the item and its actions in one transaction
func (s *SQLStore) DeleteItem(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Item{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete item %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Delete(&actionRow{}, "item_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete actions on %s: %w", id, err)
		}
		return nil
	})
}

// DeleteItemsOwnedBy removes the owner's items and their actions in one transaction
func (s *SQLStore) DeleteItemsOwnedBy(ctx context.Context, ownerID string) (int, error) {
	var deleted int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []string
		if err := tx.Model(&models.Item{}).Where("owner_id = ?", ownerID).Pluck("id", &owned).Error; err != nil {
			return fmt.Errorf("failed to list items of %s: %w", ownerID, err)
		}
		if len(owned) == 0 {
			return nil
		}
		if err := tx.Delete(&actionRow{}, "item_id IN ?", owned).Error; err != nil {
			return fmt.Errorf("failed to delete actions on items of %s: %w", ownerID, err)
		}
		res := tx.Delete(&models.Item{}, "owner_id = ?", ownerID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete items of %s: %w", ownerID, res.Error)
		}
		deleted = int(res.RowsAffected)
		return nil
	})
	return deleted, err
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return &user, nil
}

// PutUser reads, merges and writes the profile in one transaction
func (s *SQLStore) PutUser(ctx context.Context, id string, patch models.UserPatch, now time.Time) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&user, "id = ?", id).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{ID: id, CreatedAt: now}
		case err != nil:
			return fmt.Errorf("failed to load user %s: %w", id, err)
		}

		patch.Apply(&user)
		user.LastActive = now
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&user).Error; err != nil {
			return fmt.Errorf("failed to save user %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user and everything hanging off them in one transaction
func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []string
		if err := tx.Model(&models.Item{}).Where("owner_id = ?", id).Pluck("id", &owned).Error; err != nil {
			return fmt.Errorf("failed to list items of %s: %w", id, err)
		}

		actions := tx.Where("user_id = ?", id)
		if len(owned) > 0 {
			actions = actions.Or("item_id IN ?", owned)
		}
		if err := actions.Delete(&actionRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete actions of %s: %w", id, err)
		}
		if err := tx.Delete(&models.Item{}, "owner_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete items of %s: %w", id, err)
		}

		var chatIDs []string
		if err := tx.Model(&models.Chat{}).Where(`participants LIKE ? ESCAPE '\'`, participantPattern(id)).Pluck("id", &chatIDs).Error; err != nil {
			return fmt.Errorf("failed to list chats of %s: %w", id, err)
		}
		if len(chatIDs) > 0 {
			if err := tx.Delete(&models.Message{}, "conversation_id IN ?", chatIDs).Error; err != nil {
				return fmt.Errorf("failed to delete messages of %s: %w", id, err)
			}
			if err := tx.Delete(&models.Chat{}, "id IN ?", chatIDs).Error; err != nil {
				return fmt.Errorf("failed to delete chats of %s: %w", id, err)
			}
		}

		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		logger.Info("user deleted", zap.String("userId", id), zap.Int("items", len(owned)), zap.Int("chats", len(chatIDs)))
		return nil
	})
}

// RecordAction upserts the pair's row unless the stored one is newer
func (s *SQLStore) RecordAction(ctx context.Context, a models.Action) (bool, error) {
	row := actionRow{
		UserID:  a.UserID,
		ItemID:  a.ItemID,
		Kind:    string(a.Kind),
		ActedAt: a.Timestamp.UnixMicro(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "acted_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "excluded.acted_at >= actions.acted_at"},
		}},
	}).Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("failed to record action: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *SQLStore) ActionsFor(ctx context.Context, userID string) ([]models.Action, error) {
	var rows []actionRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("item_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch actions for %s: %w", userID, err)
	}
	return rowsToActions(rows), nil
}

func (s *SQLStore) AllLikeActions(ctx context.Context) ([]models.Action, error) {
	var rows []actionRow
	err := s.db.WithContext(ctx).Where("kind = ?", string(models.ActionLike)).Order("user_id, item_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch likes: %w", err)
	}
	return rowsToActions(rows), nil
}

func (s *SQLStore) DeleteActions(ctx context.Context, scope models.ActionScope) (int, error) {
	q, err := s.scoped(ctx, scope)
	if err != nil {
		return 0, err
	}
	return deleteRows(q)
}

// DeleteMatchTraces removes only the likes selected by scope
func (s *SQLStore) DeleteMatchTraces(ctx context.Context, scope models.ActionScope) (int, error) {
	q, err := s.scoped(ctx, scope)
	if err != nil {
		return 0, err
	}
	return deleteRows(q.Where("kind = ?", string(models.ActionLike)))
}

func (s *SQLStore) scoped(ctx context.Context, scope models.ActionScope) (*gorm.DB, error) {
	if scope.IsEmpty() {
		return nil, ErrEmptyScope
	}
	q := s.db.WithContext(ctx)
	if scope.UserID != "" {
		q = q.Where("user_id = ?", scope.UserID)
	}
	if scope.ItemID != "" {
		q = q.Where("item_id = ?", scope.ItemID)
	}
	return q, nil
}

func deleteRows(q *gorm.DB) (int, error) {
	res := q.Delete(&actionRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete actions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *SQLStore) EnsureChat(ctx context.Context, chat models.Chat) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&chat).Error
	if err != nil {
		return fmt.Errorf("failed to ensure chat %s: %w", chat.ID, err)
	}
	return nil
}

func (s *SQLStore) SaveMessage(ctx context.Context, msg models.Message) error {
	msg.SortKey = messageSortKey(msg)
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

func (s *SQLStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sort_key DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func rowsToActions(rows []actionRow) []models.Action {
	actions := make([]models.Action, 0, len(rows))
	for _, r := range rows {
		actions = append(actions, r.toAction())
	}
	return actions
}

// participantPattern matches a user id inside the JSON encoded participants
func participantPattern(userID string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(userID)
	return `%"` + escaped + `"%`
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to load "+format+": %w", append(args, err)...)
}
