package cache

import (
	"fmt"
	"time"
)

const (
	UserKeyPrefix           = "user:%d"
	RoomKeyPrefix           = "room:%d"
	FollowerCountKeyPrefix  = "social:followers:%d"
	FollowingCountKeyPrefix = "social:following:%d"
	RevokedTokenKeyPrefix   = "blacklist:%s"
)

const (
	UserTTL        = 5 * time.Minute
	RoomTTL        = 10 * time.Minute
	FollowCountTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func RoomKey(roomID uint) string {
	return fmt.Sprintf(RoomKeyPrefix, roomID)
}

func FollowerCountKey(userID uint) string {
	return fmt.Sprintf(FollowerCountKeyPrefix, userID)
}

func FollowingCountKey(userID uint) string {
	return fmt.Sprintf(FollowingCountKeyPrefix, userID)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyPrefix, jti)
}
