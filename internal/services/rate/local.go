package rate

import (
	"math"
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

const idleEntryTTL = 10 * time.Minute

// LimiterStore keeps one token bucket per sender in process memory.
type LimiterStore struct {
	mu      sync.Mutex
	limit   xrate.Limit
	burst   int
	clients map[int64]*clientEntry
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

type clientEntry struct {
	limiter  *xrate.Limiter
	lastSeen time.Time
}

// NewLimiterStore allows perMinute events per key with the given burst. cleanupInterval <= 0 disables
// the background sweep of idle keys.
func NewLimiterStore(perMinute, burst int, cleanupInterval time.Duration) *LimiterStore {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	s := &LimiterStore{
		limit:   xrate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		clients: map[int64]*clientEntry{},
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

// Allow takes one token for userID, returning a *TooFastError when the bucket is empty.
func (s *LimiterStore) Allow(userID int64) error {
	now := s.now()
	l := s.getLimiter(userID, now)

	r := l.ReserveN(now, 1)
	if !r.OK() {
		return &TooFastError{RetryAfterSec: 1}
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	r.CancelAt(now)
	return &TooFastError{RetryAfterSec: int64(math.Ceil(delay.Seconds()))}
}

func (s *LimiterStore) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

func (s *LimiterStore) getLimiter(userID int64, now time.Time) *xrate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.clients[userID]; ok {
		e.lastSeen = now
		return e.limiter
	}
	limiter := xrate.NewLimiter(s.limit, s.burst)
	s.clients[userID] = &clientEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (s *LimiterStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(s.now().Add(-idleEntryTTL))
		case <-s.stopCh:
			return
		}
	}
}

func (s *LimiterStore) sweep(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.clients {
		if v.lastSeen.Before(cutoff) {
			delete(s.clients, k)
		}
	}
}

func (s *LimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
