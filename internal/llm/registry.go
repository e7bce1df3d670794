package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownModel 未注册的模型标识
var ErrUnknownModel = errors.New("unknown model")

// Registry 模型标识 -> 后端实例，标识不区分大小写
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry 创建空的注册表
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register 注册一个后端
func (r *Registry) Register(name string, backend Backend) error {
	if backend == nil {
		return fmt.Errorf("llm: register backend %s is nil", name)
	}
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("llm: register backend with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.backends[key]; dup {
		return fmt.Errorf("llm: register called twice for backend %s", key)
	}
	r.backends[key] = backend
	return nil
}

// Get 获取指定模型的后端
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.backends[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return backend, nil
}

// Has 模型是否已注册
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Names 返回排序后的模型标识
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
