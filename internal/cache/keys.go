package cache

import "strconv"

// Key construction is deterministic from the query's semantic identity:
// two requests with the same owner, filter, and pagination always map to the
// same key. All keys for one user share the "notifications:{user}" prefix so
// a single pattern invalidation covers every list and count entry.

// ListKey is the cache key for a user's paginated notification list.
func ListKey(userID string, page, limit int) string {
	return "notifications:" + userID + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
}

// CategoryKey is the cache key for a user's category-filtered list.
func CategoryKey(userID, category string, page, limit int) string {
	return "notifications:" + userID + ":category:" + category + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
}

// UnreadCountKey is the cache key for a user's unread total.
func UnreadCountKey(userID string) string {
	return "notifications:" + userID + ":unread:count"
}

// UserPattern matches every cache entry belonging to userID. Used as the
// invalidation scope for all mutations: any write that could change a user's
// result sets drops all of that user's list and count entries at once.
func UserPattern(userID string) string {
	return "notifications:" + userID + ":*"
}
