// services/leaderboard_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"alphabet-predictions/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const leaderboardLimit = 50

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	TotalPoints int    `json:"total_points"`
}

// LeaderboardCache stores the computed leaderboard between settlements.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]LeaderboardEntry, bool, error)
	Set(ctx context.Context, entries []LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

const leaderboardCacheKey = "alphabet:leaderboard"

type RedisLeaderboardCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisLeaderboardCache(client *redis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{Client: client, TTL: ttl}
}

func (r *RedisLeaderboardCache) Get(ctx context.Context) ([]LeaderboardEntry, bool, error) {
	raw, err := r.Client.Get(ctx, leaderboardCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (r *RedisLeaderboardCache) Set(ctx context.Context, entries []LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, leaderboardCacheKey, raw, r.TTL).Err()
}

func (r *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	return r.Client.Del(ctx, leaderboardCacheKey).Err()
}

type LeaderboardService struct {
	DB    *gorm.DB
	Cache LeaderboardCache
}

func NewLeaderboardService(db *gorm.DB, cache LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{DB: db, Cache: cache}
}

// Leaderboard ranks non-admin users by total points. Equal totals share a
// rank and the next rank skips ahead (1, 1, 3).
func (s *LeaderboardService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	if s.Cache != nil {
		entries, ok, err := s.Cache.Get(ctx)
		if err != nil {
			log.Printf("⚠️ [LEADERBOARD] Cache read failed: %v", err)
		} else if ok {
			return entries, nil
		}
	}

	var users []models.User
	if err := s.DB.WithContext(ctx).
		Select("id", "username", "total_points").
		Where("is_admin = ?", false).
		Order("total_points DESC").
		Order("username ASC").
		Limit(leaderboardLimit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		rank := i + 1
		if i > 0 && u.TotalPoints == entries[i-1].TotalPoints {
			rank = entries[i-1].Rank
		}
		entries = append(entries, LeaderboardEntry{
			Rank:        rank,
			ID:          u.ID,
			Username:    u.Username,
			TotalPoints: u.TotalPoints,
		})
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, entries); err != nil {
			log.Printf("⚠️ [LEADERBOARD] Cache write failed: %v", err)
		}
	}
	return entries, nil
}

func (s *LeaderboardService) GetLeaderboard(c *fiber.Ctx) error {
	entries, err := s.Leaderboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(entries)
}
