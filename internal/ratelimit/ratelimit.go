package ratelimit

import (
	"sync"
	"time"
)

// 默认额度：每 60 秒 20 次
const (
	DefaultMaxRequests = 20
	DefaultWindow      = time.Minute
)

const cleanupInterval = time.Hour

// Limiter 滑动窗口限流器，按调用方键独立计数。
// 单进程内存实现，多实例部署需换集中式限流。
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	requests    map[string][]time.Time
	lastCleanup time.Time

	now func() time.Time
}

// NewLimiter 创建限流器，非正参数回退到默认额度
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow 判断 key 的本次请求是否放行并记账。
// 拒绝时返回距窗口空出的等待时长。
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanupLocked(now)

	windowStart := now.Add(-l.window)
	var recent []time.Time
	for _, ts := range l.requests[key] {
		if ts.After(windowStart) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.maxRequests {
		l.requests[key] = recent
		// 时间戳按序追加，首个即最早
		wait := l.window - now.Sub(recent[0])
		return false, wait
	}

	l.requests[key] = append(recent, now)
	return true, 0
}

// Remaining 当前窗口内 key 的剩余额度，不记账
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := l.now().Add(-l.window)
	count := 0
	for _, ts := range l.requests[key] {
		if ts.After(windowStart) {
			count++
		}
	}
	if count >= l.maxRequests {
		return 0
	}
	return l.maxRequests - count
}

// MaxRequests 窗口内允许的请求数
func (l *Limiter) MaxRequests() int {
	return l.maxRequests
}

// Window 窗口时长
func (l *Limiter) Window() time.Duration {
	return l.window
}

// cleanupLocked 每小时一次清理超期键，防止键集合无界增长
func (l *Limiter) cleanupLocked(now time.Time) {
	if now.Sub(l.lastCleanup) <= cleanupInterval {
		return
	}
	cutoff := now.Add(-cleanupInterval)
	for key, stamps := range l.requests {
		var keep []time.Time
		for _, ts := range stamps {
			if ts.After(cutoff) {
				keep = append(keep, ts)
			}
		}
		if len(keep) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = keep
		}
	}
	l.lastCleanup = now
}
