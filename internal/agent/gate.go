package agent

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxInFlight 默认并发上限
const DefaultMaxInFlight = 10

// Gate 准入控制: 达到上限后立即拒绝，不排队
type Gate struct {
	sem      *semaphore.Weighted
	limit    int64
	inFlight atomic.Int64
}

// NewGate 创建准入控制
func NewGate(limit int) *Gate {
	if limit <= 0 {
		limit = DefaultMaxInFlight
	}
	return &Gate{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: int64(limit),
	}
}

// TryAcquire 尝试占用一个名额
func (g *Gate) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.inFlight.Add(1)
	return true
}

// Release 释放名额
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// InFlight 当前占用的名额数
func (g *Gate) InFlight() int64 {
	return g.inFlight.Load()
}

// Limit 并发上限
func (g *Gate) Limit() int64 {
	return g.limit
}
