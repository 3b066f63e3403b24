package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"circloth_server/logger"
	"circloth_server/models"
	"circloth_server/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// actionRecord is the Actions table row: PK userId, SK itemId, GSI on itemId
type actionRecord struct {
	UserID string `dynamodbav:"userId"`
	ItemID string `dynamodbav:"itemId"`
	Kind   string `dynamodbav:"action"`
	TS     int64  `dynamodbav:"ts"` // unix micros
}

func (r actionRecord) toAction() models.Action {
	return models.Action{
		UserID:    r.UserID,
		ItemID:    r.ItemID,
		Kind:      models.ActionKind(r.Kind),
		Timestamp: time.UnixMicro(r.TS).UTC(),
	}
}

// DynamoStore implements Store on DynamoDB
type DynamoStore struct {
	Dynamo *DynamoService
	Tables Tables
}

// NewDynamoStore wraps a DynamoDB client
func NewDynamoStore(client DynamoAPI, tables Tables) *DynamoStore {
	return &DynamoStore{Dynamo: &DynamoService{Client: client}, Tables: tables}
}

func (s *DynamoStore) Close() error { return nil }

// GetItem fetches one item by id
func (s *DynamoStore) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if err := s.Dynamo.GetItem(ctx, s.Tables.Items, utils.Key("id", id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems queries the owner index when the filter names an owner and
// scans otherwise.
func (s *DynamoStore) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	var (
		records []map[string]types.AttributeValue
		err     error
	)
	if filter.OwnerID != "" {
		records, err = s.Dynamo.QueryAll(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.Tables.Items),
			IndexName:                 aws.String(models.OwnerIDIndex),
			KeyConditionExpression:    aws.String("#ownerId = :ownerId"),
			ExpressionAttributeNames:  map[string]string{"#ownerId": "ownerId"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":ownerId": utils.StringAttr(filter.OwnerID)},
		})
	} else {
		input := &dynamodb.ScanInput{TableName: aws.String(s.Tables.Items)}
		if filter.Category != "" {
			input.FilterExpression = aws.String("#category = :category")
			input.ExpressionAttributeNames = map[string]string{"#category": "category"}
			input.ExpressionAttributeValues = map[string]types.AttributeValue{":category": utils.StringAttr(filter.Category)}
		}
		records, err = s.Dynamo.ScanAll(ctx, input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	var all []models.Item
	if err := attributevalue.UnmarshalListOfMaps(records, &all); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}

	items := make([]models.Item, 0, len(all))
	for _, item := range all {
		if !filter.Matches(item) {
			continue
		}
		items = append(items, item)
		if filter.Limit > 0 && len(items) == filter.Limit {
			break
		}
	}
	return items, nil
}

// PutItem creates or replaces an item
func (s *DynamoStore) PutItem(ctx context.Context, item models.Item) error {
	return s.Dynamo.PutItem(ctx, s.Tables.Items, item)
}

// InsertItem writes the item only when no item has its id
func (s *DynamoStore) InsertItem(ctx context.Context, item models.Item) error {
	applied, err := s.Dynamo.PutItemIf(ctx, s.Tables.Items, item,
		"attribute_not_exists(#id)", map[string]string{"#id": "id"}, nil)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
	}
	if !applied {
		return fmt.Errorf("item %s: %w", item.ID, ErrConflict)
	}
	return nil
}

// DeleteItem removes the item and every action on it
func (s *DynamoStore) DeleteItem(ctx context.Context, id string) error {
	if _, err := s.GetItem(ctx, id); err != nil {
		return err
	}

	actionKeys, err := s.actionKeysForItem(ctx, id)
	if err != nil {
		return err
	}

	writes := make([]types.TransactWriteItem, 0, len(actionKeys)+1)
	for _, key := range actionKeys {
		writes = append(writes, deleteWrite(s.Tables.Actions, key))
	}
	// the item goes last so a failed cascade leaves it in place for a retry
	writes = append(writes, deleteWrite(s.Tables.Items, utils.Key("id", id)))

	if err := s.Dynamo.TransactWriteItems(ctx, writes); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	logger.Info("item deleted", zap.String("itemId", id), zap.Int("actions", len(actionKeys)))
	return nil
}

// DeleteItemsOwnedBy removes every item of ownerID and the actions on them
func (s *DynamoStore) DeleteItemsOwnedBy(ctx context.Context, ownerID string) (int, error) {
	owned, err := s.ListItems(ctx, models.ItemFilter{OwnerID: ownerID})
	if err != nil {
		return 0, err
	}

	var writes []types.TransactWriteItem
	for _, item := range owned {
		keys, err := s.actionKeysForItem(ctx, item.ID)
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			writes = append(writes, deleteWrite(s.Tables.Actions, key))
		}
	}
	for _, item := range owned {
		writes = append(writes, deleteWrite(s.Tables.Items, utils.Key("id", item.ID)))
	}

	if err := s.Dynamo.TransactWriteItems(ctx, writes); err != nil {
		return 0, fmt.Errorf("failed to delete items of %s: %w", ownerID, err)
	}
	return len(owned), nil
}

// GetUser fetches one profile
func (s *DynamoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.Dynamo.GetItem(ctx, s.Tables.Users, utils.Key("userId", id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PutUser merges the supplied fields with a single UpdateItem
func (s *DynamoStore) PutUser(ctx context.Context, id string, patch models.UserPatch, now time.Time) (*models.User, error) {
	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.DeviceInfo != nil {
		fields["device_info"] = patch.DeviceInfo
	}
	if patch.ProfilePictureURL != nil {
		fields["profile_picture_url"] = *patch.ProfilePictureURL
	}
	if patch.Language != nil {
		fields["language"] = *patch.Language
	}
	if patch.Location != nil {
		fields["location"] = patch.Location
	}
	if patch.SizePreferences != nil {
		fields["size_preferences"] = patch.SizePreferences
	}

	nowAttr, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	names := map[string]string{"#last_active": "last_active", "#created_at": "created_at"}
	values := map[string]types.AttributeValue{":now": nowAttr}
	sets := []string{"#last_active = :now", "#created_at = if_not_exists(#created_at, :now)"}

	// sorted for a deterministic expression
	attrs := make([]string, 0, len(fields))
	for name := range fields {
		attrs = append(attrs, name)
	}
	sort.Strings(attrs)
	for _, name := range attrs {
		av, err := attributevalue.Marshal(fields[name])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		names["#"+name] = name
		values[":"+name] = av
		sets = append(sets, fmt.Sprintf("#%s = :%s", name, name))
	}

	attributes, err := s.Dynamo.UpdateItem(ctx, s.Tables.Users, "SET "+strings.Join(sets, ", "), utils.Key("userId", id), values, names)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(attributes, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	user.ID = id
	return &user, nil
}

// DeleteUser removes the user with their items, every action by them or on
// their items, and their chats with messages.
func (s *DynamoStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}

	var writes []types.TransactWriteItem
	seen := map[string]struct{}{}
	add := func(table string, key map[string]types.AttributeValue, ident string) {
		if _, dup := seen[table+"|"+ident]; dup {
			return
		}
		seen[table+"|"+ident] = struct{}{}
		writes = append(writes, deleteWrite(table, key))
	}

	byUser, err := s.actionKeysForUser(ctx, id)
	if err != nil {
		return err
	}
	for _, key := range byUser {
		add(s.Tables.Actions, key, actionKeyID(key))
	}

	owned, err := s.ListItems(ctx, models.ItemFilter{OwnerID: id})
	if err != nil {
		return err
	}
	for _, item := range owned {
		onItem, err := s.actionKeysForItem(ctx, item.ID)
		if err != nil {
			return err
		}
		for _, key := range onItem {
			add(s.Tables.Actions, key, actionKeyID(key))
		}
	}
	for _, item := range owned {
		add(s.Tables.Items, utils.Key("id", item.ID), item.ID)
	}

	chats, err := s.chatsFor(ctx, id)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		msgKeys, err := s.messageKeys(ctx, chat.ID)
		if err != nil {
			return err
		}
		for _, key := range msgKeys {
			add(s.Tables.Messages, key, chat.ID+"|"+utils.ExtractString(key, "sk"))
		}
		add(s.Tables.Chats, utils.Key("id", chat.ID), chat.ID)
	}

	add(s.Tables.Users, utils.Key("userId", id), id)

	if err := s.Dynamo.TransactWriteItems(ctx, writes); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	logger.Info("user deleted", zap.String("userId", id), zap.Int("writes", len(writes)))
	return nil
}

// RecordAction writes the action if no newer one exists for the pair
func (s *DynamoStore) RecordAction(ctx context.Context, a models.Action) (bool, error) {
	record := actionRecord{
		UserID: a.UserID,
		ItemID: a.ItemID,
		Kind:   string(a.Kind),
		TS:     a.Timestamp.UnixMicro(),
	}
	return s.Dynamo.PutItemIf(ctx, s.Tables.Actions, record,
		"attribute_not_exists(#userId) OR #ts <= :ts",
		map[string]string{"#userId": "userId", "#ts": "ts"},
		map[string]types.AttributeValue{":ts": utils.NumberAttr(record.TS)},
	)
}

// ActionsFor lists a user's actions ordered by item id
func (s *DynamoStore) ActionsFor(ctx context.Context, userID string) ([]models.Action, error) {
	records, err := s.Dynamo.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.Tables.Actions),
		KeyConditionExpression:    aws.String("#userId = :userId"),
		ExpressionAttributeNames:  map[string]string{"#userId": "userId"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":userId": utils.StringAttr(userID)},
		ConsistentRead:            aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch actions for %s: %w", userID, err)
	}
	return toActions(records)
}

// AllLikeActions scans the Actions table for likes
func (s *DynamoStore) AllLikeActions(ctx context.Context) ([]models.Action, error) {
	records, err := s.Dynamo.ScanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.Tables.Actions),
		FilterExpression:          aws.String("#action = :like"),
		ExpressionAttributeNames:  map[string]string{"#action": "action"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":like": utils.StringAttr(string(models.ActionLike))},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan likes: %w", err)
	}
	return toActions(records)
}

// DeleteActions removes the selected actions in one batch
func (s *DynamoStore) DeleteActions(ctx context.Context, scope models.ActionScope) (int, error) {
	records, err := s.actionRecordsIn(ctx, scope)
	if err != nil {
		return 0, err
	}
	return s.deleteActionRecords(ctx, records)
}

// DeleteMatchTraces removes only the likes selected by scope
func (s *DynamoStore) DeleteMatchTraces(ctx context.Context, scope models.ActionScope) (int, error) {
	records, err := s.actionRecordsIn(ctx, scope)
	if err != nil {
		return 0, err
	}
	likes := records[:0]
	for _, r := range records {
		if utils.ExtractString(r, "action") == string(models.ActionLike) {
			likes = append(likes, r)
		}
	}
	return s.deleteActionRecords(ctx, likes)
}

func (s *DynamoStore) deleteActionRecords(ctx context.Context, records []map[string]types.AttributeValue) (int, error) {
	keys := actionKeys(records)
	writes := make([]types.TransactWriteItem, 0, len(keys))
	for _, key := range keys {
		writes = append(writes, deleteWrite(s.Tables.Actions, key))
	}
	if err := s.Dynamo.TransactWriteItems(ctx, writes); err != nil {
		return 0, fmt.Errorf("failed to delete actions: %w", err)
	}
	return len(keys), nil
}

// EnsureChat creates the chat record once
func (s *DynamoStore) EnsureChat(ctx context.Context, chat models.Chat) error {
	_, err := s.Dynamo.PutItemIf(ctx, s.Tables.Chats, chat,
		"attribute_not_exists(#id)", map[string]string{"#id": "id"}, nil)
	return err
}

// SaveMessage stores a message under its conversation
func (s *DynamoStore) SaveMessage(ctx context.Context, msg models.Message) error {
	msg.SortKey = messageSortKey(msg)
	return s.Dynamo.PutItem(ctx, s.Tables.Messages, msg)
}

// ListMessages reads the newest limit messages and returns them oldest first
func (s *DynamoStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	records, err := s.Dynamo.QueryItemsWithOptions(ctx, s.Tables.Messages,
		"#conversationId = :conversationId",
		map[string]types.AttributeValue{":conversationId": utils.StringAttr(conversationID)},
		map[string]string{"#conversationId": "conversationId"},
		int32(limit), true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(records, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// actionRecordsIn returns the keys and kinds of the actions selected by scope
func (s *DynamoStore) actionRecordsIn(ctx context.Context, scope models.ActionScope) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:                aws.String(s.Tables.Actions),
		ProjectionExpression:     aws.String("#userId, #itemId, #action"),
		ExpressionAttributeNames: map[string]string{"#userId": "userId", "#itemId": "itemId", "#action": "action"},
	}
	switch {
	case scope.IsEmpty():
		return nil, ErrEmptyScope
	case scope.UserID != "" && scope.ItemID != "":
		input.KeyConditionExpression = aws.String("#userId = :userId AND #itemId = :itemId")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":userId": utils.StringAttr(scope.UserID),
			":itemId": utils.StringAttr(scope.ItemID),
		}
	case scope.UserID != "":
		input.KeyConditionExpression = aws.String("#userId = :userId")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{":userId": utils.StringAttr(scope.UserID)}
	default:
		input.IndexName = aws.String(models.ItemIDIndex)
		input.KeyConditionExpression = aws.String("#itemId = :itemId")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{":itemId": utils.StringAttr(scope.ItemID)}
	}

	records, err := s.Dynamo.QueryAll(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch actions: %w", err)
	}
	return records, nil
}

func (s *DynamoStore) actionKeysForUser(ctx context.Context, userID string) ([]map[string]types.AttributeValue, error) {
	records, err := s.Dynamo.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.Tables.Actions),
		KeyConditionExpression:    aws.String("#userId = :userId"),
		ProjectionExpression:      aws.String("#userId, #itemId"),
		ExpressionAttributeNames:  map[string]string{"#userId": "userId", "#itemId": "itemId"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":userId": utils.StringAttr(userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch actions for %s: %w", userID, err)
	}
	return actionKeys(records), nil
}

func (s *DynamoStore) actionKeysForItem(ctx context.Context, itemID string) ([]map[string]types.AttributeValue, error) {
	records, err := s.Dynamo.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.Tables.Actions),
		IndexName:                 aws.String(models.ItemIDIndex),
		KeyConditionExpression:    aws.String("#itemId = :itemId"),
		ProjectionExpression:      aws.String("#userId, #itemId"),
		ExpressionAttributeNames:  map[string]string{"#userId": "userId", "#itemId": "itemId"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":itemId": utils.StringAttr(itemID)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch actions on %s: %w", itemID, err)
	}
	return actionKeys(records), nil
}

func (s *DynamoStore) chatsFor(ctx context.Context, userID string) ([]models.Chat, error) {
	records, err := s.Dynamo.ScanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.Tables.Chats),
		FilterExpression:          aws.String("contains(#participants, :userId)"),
		ExpressionAttributeNames:  map[string]string{"#participants": "participants"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":userId": utils.StringAttr(userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan chats for %s: %w", userID, err)
	}
	var chats []models.Chat
	if err := attributevalue.UnmarshalListOfMaps(records, &chats); err != nil {
		return nil, fmt.Errorf("failed to parse chats: %w", err)
	}
	return chats, nil
}

func (s *DynamoStore) messageKeys(ctx context.Context, conversationID string) ([]map[string]types.AttributeValue, error) {
	records, err := s.Dynamo.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.Tables.Messages),
		KeyConditionExpression:    aws.String("#conversationId = :conversationId"),
		ProjectionExpression:      aws.String("#conversationId, #sk"),
		ExpressionAttributeNames:  map[string]string{"#conversationId": "conversationId", "#sk": "sk"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":conversationId": utils.StringAttr(conversationID)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages of %s: %w", conversationID, err)
	}
	keys := make([]map[string]types.AttributeValue, 0, len(records))
	for _, r := range records {
		keys = append(keys, utils.CompositeKey("conversationId", utils.ExtractString(r, "conversationId"), "sk", utils.ExtractString(r, "sk")))
	}
	return keys, nil
}

func toActions(records []map[string]types.AttributeValue) ([]models.Action, error) {
	var rows []actionRecord
	if err := attributevalue.UnmarshalListOfMaps(records, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse actions: %w", err)
	}
	actions := make([]models.Action, 0, len(rows))
	for _, r := range rows {
		actions = append(actions, r.toAction())
	}
	return actions, nil
}

func actionKeys(records []map[string]types.AttributeValue) []map[string]types.AttributeValue {
	keys := make([]map[string]types.AttributeValue, 0, len(records))
	for _, r := range records {
		keys = append(keys, utils.CompositeKey("userId", utils.ExtractString(r, "userId"), "itemId", utils.ExtractString(r, "itemId")))
	}
	return keys
}

func actionKeyID(key map[string]types.AttributeValue) string {
	return utils.ExtractString(key, "userId") + "|" + utils.ExtractString(key, "itemId")
}
