package credstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each client as one hash at "<prefix>:<clientID>".
type Redis struct {
	client  *redis.Client
	prefix  string
	idleTTL time.Duration
}

func NewRedis(client *redis.Client, prefix string, idleTTL time.Duration) *Redis {
	if prefix == "" {
		prefix = "credstore"
	}
	return &Redis{
		client:  client,
		prefix:  prefix,
		idleTTL: idleTTL,
	}
}

func (r *Redis) For(clientID string) Store {
	return &redisStore{
		owner: r,
		key:   r.prefix + ":" + clientID,
	}
}

func (r *Redis) Clients(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 200).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), r.prefix+":"))
	}
	if err := iter.Err(); err != nil {
		return nil, storageErr("scan clients", err)
	}
	return ids, nil
}

type redisStore struct {
	owner *Redis
	key   string
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.owner.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, storageErr("get "+key, err)
	}
	return val, true, nil
}

func (s *redisStore) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	vals, err := s.owner.client.HMGet(ctx, s.key, keys...).Result()
	if err != nil {
		return nil, storageErr("get many", err)
	}
	for i, val := range vals {
		if str, ok := val.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

func (s *redisStore) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	args := make([]interface{}, 0, len(values)*2)
	for field, value := range values {
		args = append(args, field, value)
	}

	pipe := s.owner.client.TxPipeline()
	pipe.HSet(ctx, s.key, args...)
	if s.owner.idleTTL > 0 {
		pipe.Expire(ctx, s.key, s.owner.idleTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return storageErr("set", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.owner.client.HDel(ctx, s.key, keys...).Err(); err != nil {
		return storageErr("delete", err)
	}
	return nil
}
