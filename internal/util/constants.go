package util

const (
	DateFormat = "2006-01-02"
)

// 缓存 key 前缀
const (
	CacheKeyStreak   = "progress:streak:%d"
	CacheKeyProgress = "progress:monthly:%d:%04d-%02d"
)
