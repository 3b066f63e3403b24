// Package likeindex keeps an incremental Redis index of authoritative likes:
// for each user the set of items they like, and for each item the set of
// users who like it. Match discovery reads it instead of scanning every
// action in the store.
package likeindex

import (
	"context"
	"fmt"

	"circloth_server/models"

	"github.com/redis/go-redis/v9"
)

const prefix = "likeidx:"

func tsKey(userID string) string     { return prefix + "ts:" + userID }
func likesKey(userID string) string  { return prefix + "likes:" + userID }
func likersKey(itemID string) string { return prefix + "likers:" + itemID }

// apply records one action unless a newer one for the same (user, item)
// has been seen. Equal timestamps overwrite.
//
// KEYS: ts hash of the user, likes set of the user, likers set of the item
// ARGV: item id, user id, unix micros, kind
var apply = redis.NewScript(`
local prev = redis.call('HGET', KEYS[1], ARGV[1])
if prev and tonumber(prev) > tonumber(ARGV[3]) then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
if ARGV[4] == 'like' then
  redis.call('SADD', KEYS[2], ARGV[1])
  redis.call('SADD', KEYS[3], ARGV[2])
else
  redis.call('SREM', KEYS[2], ARGV[1])
  redis.call('SREM', KEYS[3], ARGV[2])
end
return 1
`)

// Index is the Redis like index
type Index struct {
	rdb redis.UniversalClient
}

// New wraps a connected client
func New(rdb redis.UniversalClient) *Index {
	return &Index{rdb: rdb}
}

// Dial connects to addr and verifies the connection
func Dial(ctx context.Context, addr, password string, db int) (*Index, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return New(rdb), nil
}

// Close closes the underlying client
func (x *Index) Close() error {
	return x.rdb.Close()
}

// Apply folds one action into the index. applied is false when a newer
// action for the pair was already indexed.
func (x *Index) Apply(ctx context.Context, a models.Action) (bool, error) {
	keys := []string{tsKey(a.UserID), likesKey(a.UserID), likersKey(a.ItemID)}
	n, err := apply.Run(ctx, x.rdb, keys, a.ItemID, a.UserID, a.Timestamp.UnixMicro(), string(a.Kind)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to index action: %w", err)
	}
	return n == 1, nil
}

// LikedBy returns the ids of items the user authoritatively likes
func (x *Index) LikedBy(ctx context.Context, userID string) ([]string, error) {
	ids, err := x.rdb.SMembers(ctx, likesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read likes of %s: %w", userID, err)
	}
	return ids, nil
}

// LikersOf returns the ids of users who authoritatively like the item
func (x *Index) LikersOf(ctx context.Context, itemID string) ([]string, error) {
	ids, err := x.rdb.SMembers(ctx, likersKey(itemID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read likers of %s: %w", itemID, err)
	}
	return ids, nil
}

// LikersOfMany reads the liker sets of several items in one round trip
func (x *Index) LikersOfMany(ctx context.Context, itemIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	cmds := make(map[string]*redis.StringSliceCmd, len(itemIDs))
	_, err := x.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range itemIDs {
			cmds[id] = p.SMembers(ctx, likersKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read likers: %w", err)
	}
	for id, cmd := range cmds {
		out[id] = cmd.Val()
	}
	return out, nil
}

// RemoveItem drops an item and every like on it
func (x *Index) RemoveItem(ctx context.Context, itemID string) error {
	likers, err := x.LikersOf(ctx, itemID)
	if err != nil {
		return err
	}
	_, err = x.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, userID := range likers {
			p.SRem(ctx, likesKey(userID), itemID)
			p.HDel(ctx, tsKey(userID), itemID)
		}
		p.Del(ctx, likersKey(itemID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove item %s from index: %w", itemID, err)
	}
	return nil
}

// RemoveLike forgets userID's decision on itemID
func (x *Index) RemoveLike(ctx context.Context, userID, itemID string) error {
	_, err := x.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SRem(ctx, likesKey(userID), itemID)
		p.HDel(ctx, tsKey(userID), itemID)
		p.SRem(ctx, likersKey(itemID), userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove like of %s on %s: %w", userID, itemID, err)
	}
	return nil
}

// RemoveUser drops the user's likes and their owned items
func (x *Index) RemoveUser(ctx context.Context, userID string, ownedItemIDs []string) error {
	for _, itemID := range ownedItemIDs {
		if err := x.RemoveItem(ctx, itemID); err != nil {
			return err
		}
	}

	liked, err := x.LikedBy(ctx, userID)
	if err != nil {
		return err
	}
	_, err = x.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, itemID := range liked {
			p.SRem(ctx, likersKey(itemID), userID)
		}
		p.Del(ctx, likesKey(userID), tsKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove user %s from index: %w", userID, err)
	}
	return nil
}

// Rebuild clears the index and loads it from the given authoritative likes
func (x *Index) Rebuild(ctx context.Context, likes []models.Action) error {
	iter := x.rdb.Scan(ctx, 0, prefix+"*", 500).Iterator()
	var stale []string
	for iter.Next(ctx) {
		stale = append(stale, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan index keys: %w", err)
	}

	_, err := x.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		if len(stale) > 0 {
			p.Del(ctx, stale...)
		}
		for _, a := range likes {
			p.HSet(ctx, tsKey(a.UserID), a.ItemID, a.Timestamp.UnixMicro())
			p.SAdd(ctx, likesKey(a.UserID), a.ItemID)
			p.SAdd(ctx, likersKey(a.ItemID), a.UserID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}
	return nil
}
