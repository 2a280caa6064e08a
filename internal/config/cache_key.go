package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizSessionKey returns the cache key holding a live quiz session
func (r *CacheKeyStruct) QuizSessionKey(sessionID string) string {
	return fmt.Sprintf("quiz:%s", sessionID)
}

// UserActiveQuizKey returns the cache key pointing at a user's in-progress quiz session
func (r *CacheKeyStruct) UserActiveQuizKey(userID string) string {
	return fmt.Sprintf("user:%s:active_quiz", userID)
}

// UserPreferencesKey returns the hash key holding a host's learned match preferences
func (r *CacheKeyStruct) UserPreferencesKey(userID string) string {
	return fmt.Sprintf("user:preferences:%s", userID)
}

// RecommendationPrefix returns the key prefix shared by all of a user's cached recommendations
func (r *CacheKeyStruct) RecommendationPrefix(userID string) string {
	return fmt.Sprintf("recommendations:%s:", userID)
}

// RecommendationKey returns the cache key for one recommendation list
func (r *CacheKeyStruct) RecommendationKey(userID, kind string, limit int) string {
	return fmt.Sprintf("%s%s:%d", r.RecommendationPrefix(userID), kind, limit)
}

// UserNotificationChannel returns the Redis PubSub channel for a user's notifications
func (r *CacheKeyStruct) UserNotificationChannel(userID string) string {
	return fmt.Sprintf("user:%s:notifications", userID)
}

// EventChannel returns the Redis PubSub channel for one event type
func (r *CacheKeyStruct) EventChannel(eventType string) string {
	return fmt.Sprintf("events:%s", eventType)
}

var CacheKey = NewCacheKeyStruct()
