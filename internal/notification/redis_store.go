package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keySeq     = "notif:seq"
	keyPending = "notif:pending"
)

func itemKey(id int64) string           { return "notif:item:" + strconv.FormatInt(id, 10) }
func patientKey(patientID int64) string { return "notif:patient:" + strconv.FormatInt(patientID, 10) }
func titlesKey(patientID int64) string  { return "notif:titles:" + strconv.FormatInt(patientID, 10) }

// maxWatchRetries bounds optimistic retries when a watched item changes
// between read and write.
const maxWatchRetries = 3

// RedisStore shares notifications between the API server and the reminder
// worker. Each notification is a JSON value; per-patient and pending sorted
// sets index it.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, clock func() time.Time) *RedisStore {
	if clock == nil {
		clock = time.Now
	}
	return &RedisStore{client: client, now: clock}
}

func (s *RedisStore) Append(ctx context.Context, n Notification) (int64, error) {
	id, err := s.client.Incr(ctx, keySeq).Result()
	if err != nil {
		return 0, fmt.Errorf("next notification id: %w", err)
	}

	n.ID = id
	n.CreatedAt = s.now().UTC()
	n.SentAt = nil
	n.IsRead = false

	raw, err := json.Marshal(n)
	if err != nil {
		return 0, fmt.Errorf("encode notification: %w", err)
	}

	var score float64
	if n.ScheduledAt != nil {
		score = float64(n.ScheduledAt.Unix())
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, itemKey(id), raw, 0)
		pipe.ZAdd(ctx, patientKey(n.PatientID), redis.Z{Score: float64(id), Member: id})
		pipe.ZAdd(ctx, keyPending, redis.Z{Score: score, Member: id})
		pipe.SAdd(ctx, titlesKey(n.PatientID), n.Title)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("store notification: %w", err)
	}
	return id, nil
}

func (s *RedisStore) ListByPatient(ctx context.Context, patientID int64) ([]Notification, error) {
	ids, err := s.client.ZRevRange(ctx, patientKey(patientID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list notification ids: %w", err)
	}
	return s.load(ctx, ids)
}

func (s *RedisStore) MarkRead(ctx context.Context, id int64) error {
	return s.update(ctx, id, func(n *Notification, _ redis.Pipeliner) {
		n.IsRead = true
	})
}

func (s *RedisStore) HasTitle(ctx context.Context, patientID int64, title string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, titlesKey(patientID), title).Result()
	if err != nil {
		return false, fmt.Errorf("check notification title: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Due(ctx context.Context, now time.Time, limit int) ([]Notification, error) {
	ids, err := s.client.ZRangeByScore(ctx, keyPending, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due notifications: %w", err)
	}
	return s.load(ctx, ids)
}

func (s *RedisStore) MarkSent(ctx context.Context, id int64, at time.Time) error {
	return s.update(ctx, id, func(n *Notification, pipe redis.Pipeliner) {
		sent := at.UTC()
		n.SentAt = &sent
		pipe.ZRem(ctx, keyPending, id)
	})
}

// load fetches items by id in the given order. Ids whose item has expired or
// been removed are skipped.
func (s *RedisStore) load(ctx context.Context, ids []string) ([]Notification, error) {
	out := []Notification{}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad notification id %q: %w", id, err)
		}
		keys[i] = itemKey(n)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var n Notification
		if err := json.Unmarshal([]byte(str), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

// update applies mutate to the stored item under WATCH so concurrent writers
// do not lose each other's changes.
func (s *RedisStore) update(ctx context.Context, id int64, mutate func(n *Notification, pipe redis.Pipeliner)) error {
	key := itemKey(id)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotificationNotFound
		}
		if err != nil {
			return err
		}
		var n Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("decode notification: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			mutate(&n, pipe)
			b, err := json.Marshal(n)
			if err != nil {
				return err
			}
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrNotificationNotFound) {
			return fmt.Errorf("update notification %d: %w", id, err)
		}
		return err
	}
	return fmt.Errorf("update notification %d: %w", id, redis.TxFailedErr)
}
