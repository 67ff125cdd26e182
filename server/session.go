package server

import (
	"sync"

	"github.com/wgdzlh/geoedit"
	"github.com/wgdzlh/geoedit/log"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const SESSION_HEADER = "X-Session-ID"

// 每个会话持有一个要素集合，mu保证同一集合上的请求串行执行
type session struct {
	mu    sync.Mutex
	store *geoedit.FeatureStore
}

type Sessions struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *session]
	proj  geoedit.Reprojector
}

func NewSessions(size int, proj geoedit.Reprojector) (s *Sessions, err error) {
	s = &Sessions{proj: proj}
	s.cache, err = lru.NewWithEvict(size, func(id string, _ *session) {
		sessionsEvicted.Inc()
		log.Info("session evicted", zap.String("id", id))
	})
	if err != nil {
		return nil, err
	}
	return
}

// 按会话id取会话，id为空或未知时新建
func (s *Sessions) Acquire(id string) (string, *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if sess, ok := s.cache.Get(id); ok {
			return id, sess
		}
	}
	id = uuid.NewString()
	sess := &session{store: geoedit.NewFeatureStore(s.proj)}
	s.cache.Add(id, sess)
	sessionsActive.Set(float64(s.cache.Len()))
	log.Debug("session created", zap.String("id", id))
	return id, sess
}

func (s *Sessions) Len() int {
	return s.cache.Len()
}
