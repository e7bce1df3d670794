package agent

import (
	"context"
	"sync"
)

// SessionLocks 按会话加锁，只在本进程内生效
// 锁对象按引用计数回收，不会随会话数量增长
type SessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock 容量为 1 的通道作为互斥锁，等待时可被 ctx 取消
type sessionLock struct {
	ch   chan struct{}
	refs int
}

// NewSessionLocks 创建会话锁表
func NewSessionLocks() *SessionLocks {
	return &SessionLocks{locks: make(map[string]*sessionLock)}
}

// Lock 阻塞直到获得 key 对应的锁，返回解锁函数
func (s *SessionLocks) Lock(key string) func() {
	unlock, _ := s.LockContext(context.Background(), key)
	return unlock
}

// LockContext 等待 key 对应的锁，ctx 结束时放弃等待并返回 ctx.Err()
func (s *SessionLocks) LockContext(ctx context.Context, key string) (func(), error) {
	l := s.acquireRef(key)

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		s.releaseRef(key, l)
		return nil, ctx.Err()
	}

	return func() {
		<-l.ch
		s.releaseRef(key, l)
	}, nil
}

func (s *SessionLocks) acquireRef(key string) *sessionLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sessionLock{ch: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.refs++
	return l
}

func (s *SessionLocks) releaseRef(key string, l *sessionLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}

// Len 当前持有或等待中的会话数
func (s *SessionLocks) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func sessionKey(userID, topicID string) string {
	return userID + "\x00" + topicID
}
