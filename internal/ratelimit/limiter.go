// Package ratelimit は固定ウィンドウ方式のインメモリレート制限を提供します。
package ratelimit

import (
	"sync"
	"time"
)

// defaultMaxBuckets はバケットマップの掃除を始めるサイズ閾値です。
const defaultMaxBuckets = 5000

// Decision は1回の Check 呼び出しの判定結果です。
type Decision struct {
	Allowed           bool
	Limit             int
	Remaining         int
	ResetAt           int64 // ウィンドウが終了するエポックミリ秒
	RetryAfterSeconds int64
}

type bucket struct {
	count   int
	resetAt int64
}

// Limiter はキーごとの固定ウィンドウカウンターを管理します。
// バケットマップはこの構造体だけが所有し、すべての更新はロック下で行います。
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxBuckets int
	now        func() time.Time
}

// NewLimiter は Limiter を作成します。
func NewLimiter() *Limiter {
	return &Limiter{
		buckets:    make(map[string]*bucket),
		maxBuckets: defaultMaxBuckets,
		now:        time.Now,
	}
}

// Check は key に対するリクエストを1回分カウントし、許可するかどうかを判定します。
// limit が0以下の場合は制限なしとして常に許可します。
func (l *Limiter) Check(key string, limit int, windowMs int64) Decision {
	nowMs := l.now().UnixMilli()

	if limit <= 0 {
		return Decision{
			Allowed:   true,
			Limit:     limit,
			Remaining: -1,
			ResetAt:   nowMs + windowMs,
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(nowMs)

	existing, ok := l.buckets[key]
	if !ok || existing.resetAt <= nowMs {
		resetAt := nowMs + windowMs
		l.buckets[key] = &bucket{count: 1, resetAt: resetAt}
		return Decision{
			Allowed:           true,
			Limit:             limit,
			Remaining:         limit - 1,
			ResetAt:           resetAt,
			RetryAfterSeconds: ceilSeconds(windowMs),
		}
	}

	if existing.count >= limit {
		return Decision{
			Allowed:           false,
			Limit:             limit,
			Remaining:         0,
			ResetAt:           existing.resetAt,
			RetryAfterSeconds: ceilSeconds(existing.resetAt - nowMs),
		}
	}

	existing.count++
	remaining := limit - existing.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:           true,
		Limit:             limit,
		Remaining:         remaining,
		ResetAt:           existing.resetAt,
		RetryAfterSeconds: ceilSeconds(existing.resetAt - nowMs),
	}
}

// sweepLocked はマップが閾値を超えたときに期限切れバケットだけを削除します。
// ウィンドウが生きているバケットは圧迫時でも消さない（正当なトラフィックを
// 誤って拒否しないことをメモリ超過より優先する）。
func (l *Limiter) sweepLocked(nowMs int64) {
	if len(l.buckets) <= l.maxBuckets {
		return
	}
	for key, b := range l.buckets {
		if b.resetAt <= nowMs {
			delete(l.buckets, key)
		}
	}
}

// ceilSeconds はミリ秒を秒に切り上げます（最低1秒）。
func ceilSeconds(ms int64) int64 {
	if ms <= 0 {
		return 1
	}
	seconds := (ms + 999) / 1000
	if seconds < 1 {
		return 1
	}
	return seconds
}
