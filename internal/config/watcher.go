package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变更并触发 Store.Reload，实现热更新。
// 编辑器普遍采用写临时文件再rename的保存方式，因此监听配置所在目录
// 而不是文件本身，并做短暂去抖合并连续事件。
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	onReload func(err error) // 热更新结果回调，用于记日志，可为nil
	debounce time.Duration
}

// NewWatcher 创建配置文件监听器
func NewWatcher(store *Store, onReload func(err error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(store.Path())
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		store:    store,
		watcher:  fw,
		onReload: onReload,
		debounce: 200 * time.Millisecond,
	}, nil
}

// Watch 阻塞运行直到 ctx 结束
func (w *Watcher) Watch(ctx context.Context) {
	defer w.watcher.Close()

	target := filepath.Clean(w.store.Path())
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// 去抖：合并编辑器保存时的连续事件
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			err := w.store.Reload()
			if w.onReload != nil {
				w.onReload(err)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
