package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's active session JTI.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// VerifyOTPKey returns the cache key for a user's account-verification OTP.
func (r *CacheKeyStruct) VerifyOTPKey(userID int) string {
	return fmt.Sprintf("otp:verify:%d", userID)
}

// ResetOTPKey returns the cache key for a user's password-reset OTP.
func (r *CacheKeyStruct) ResetOTPKey(userID int) string {
	return fmt.Sprintf("otp:reset:%d", userID)
}

var CacheKey = NewCacheKeyStruct()
