package redis

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"ImageTagger/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const keyPrefix = "image:tags:"

var ErrCacheMiss = fmt.Errorf("tag cache miss: %w", redis.Nil)

// IRedis caches provider results per image URL so repeated requests skip the
// upstream call.
type IRedis interface {
	GetRawResult(ctx context.Context, imageURL string) (*entity.RawClassificationResult, error)
	SetRawResult(ctx context.Context, imageURL string, raw *entity.RawClassificationResult, expiration time.Duration) error
	Close() error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func NewWithClient(client *redis.Client) IRedis {
	return &redisClient{client: client}
}

// Key is the cache key for imageURL.
func Key(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (r *redisClient) GetRawResult(ctx context.Context, imageURL string) (*entity.RawClassificationResult, error) {
	key := Key(imageURL)
	logrus.Debug(fmt.Sprintf("Getting cached result for key %s", key))

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Cached result not found for key %s", key))
		return nil, ErrCacheMiss
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting cached result for key %s: %v", key, err))
		return nil, err
	}

	var raw entity.RawClassificationResult
	if err := jsoniter.Unmarshal(val, &raw); err != nil {
		logrus.Warn(fmt.Sprintf("Discarding undecodable cached result for key %s: %v", key, err))
		r.client.Del(ctx, key)
		return nil, ErrCacheMiss
	}

	return &raw, nil
}

func (r *redisClient) SetRawResult(ctx context.Context, imageURL string, raw *entity.RawClassificationResult, expiration time.Duration) error {
	key := Key(imageURL)

	payload, err := jsoniter.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode cached result: %w", err)
	}

	logrus.Debug(fmt.Sprintf("Caching result for key %s with expiration %v", key, expiration))
	if err := r.client.Set(ctx, key, payload, expiration).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error caching result for key %s: %v", key, err))
		return err
	}

	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
