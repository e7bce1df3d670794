package knowledge

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 语料变化后等待的时间，合并连续的文件事件
const DefaultDebounce = 2 * time.Second

// Rebuilder 可被触发重建的索引
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Watcher 监听语料目录，文件变化后延迟触发索引重建
type Watcher struct {
	watcher  *fsnotify.Watcher
	target   Rebuilder
	debounce time.Duration
}

// NewWatcher 创建语料监听器，监听 dir 及其所有子目录
func NewWatcher(dir string, target Rebuilder, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		watcher:  fw,
		target:   target,
		debounce: debounce,
	}
	if err := w.addTree(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree 递归添加目录监听，fsnotify 不会自动监听子目录
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}

// isNewDir 判断事件是否为新建的目录
func isNewDir(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

// Run 处理文件事件直到 ctx 结束或监听器关闭
// 重建在本 goroutine 中同步执行
func (w *Watcher) Run(ctx context.Context) {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if isNewDir(event) {
				// 目录可能在添加监听前已写入文件，因此同样触发重建
				if err := w.addTree(event.Name); err != nil {
					logx.Warn("Failed to watch new corpus directory %s: %v", event.Name, err)
				}
			} else if !IsCorpusFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			logx.Debug("Corpus change detected: %s %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			logx.Info("📚 Corpus changed, rebuilding vector index")
			if err := w.target.Rebuild(ctx); err != nil {
				logx.Error("Failed to rebuild vector index: %v", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logx.Warn("Corpus watcher error: %v", err)
		}
	}
}

// Close 停止监听
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
