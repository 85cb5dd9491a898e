package channel

import (
	"os"
	"path/filepath"
	"testing"

	"smartaiproxy/internal/config"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := config.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return NewRegistry(store), path
}

func TestAddOrUpdateReplacesInPlace(t *testing.T) {
	r, _ := newTestRegistry(t)
	before := len(r.List())
	name := r.List()[0].Name

	updated := r.List()[0]
	updated.Priority = 42
	if err := r.AddOrUpdate(updated); err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}

	channels := r.List()
	if len(channels) != before {
		t.Errorf("update must not change list length: got %d, want %d", len(channels), before)
	}
	if channels[0].Name != name || channels[0].Priority != 42 {
		t.Errorf("channel not replaced in place: %+v", channels[0])
	}
}

func TestAddOrUpdateAppendsNew(t *testing.T) {
	r, _ := newTestRegistry(t)
	before := len(r.List())

	err := r.AddOrUpdate(config.ChannelConfig{
		Name:     "Brand New",
		Endpoint: "https://example.com/v1",
		Status:   config.StatusActive,
	})
	if err != nil {
		t.Fatalf("AddOrUpdate failed: %v", err)
	}

	if got := len(r.List()); got != before+1 {
		t.Errorf("append should grow list by 1: got %d, want %d", got, before+1)
	}
	if _, ok := r.GetByName("Brand New"); !ok {
		t.Error("appended channel not found by name")
	}
}

func TestAddOrUpdateEmptyName(t *testing.T) {
	r, _ := newTestRegistry(t)
	if err := r.AddOrUpdate(config.ChannelConfig{Endpoint: "https://example.com"}); err == nil {
		t.Error("empty channel name must be rejected")
	}
}

func TestRemoveAbsentDoesNotPersist(t *testing.T) {
	r, path := newTestRegistry(t)
	before := len(r.List())

	// 删掉配置文件：若Remove对不存在的渠道触发了持久化，文件会被重建
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove config file: %v", err)
	}

	if err := r.Remove("does-not-exist"); err != nil {
		t.Fatalf("Remove of absent channel should be a no-op, got: %v", err)
	}
	if got := len(r.List()); got != before {
		t.Errorf("channel list changed: got %d, want %d", got, before)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Remove of absent channel must not trigger a persistence write")
	}
}

func TestRemoveExisting(t *testing.T) {
	r, _ := newTestRegistry(t)
	name := r.List()[0].Name
	before := len(r.List())

	if err := r.Remove(name); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if got := len(r.List()); got != before-1 {
		t.Errorf("list length after remove: got %d, want %d", got, before-1)
	}
	if _, ok := r.GetByName(name); ok {
		t.Error("removed channel still present")
	}
}

func TestUpdateStatus(t *testing.T) {
	r, _ := newTestRegistry(t)
	name := r.List()[0].Name

	if err := r.UpdateStatus(name, config.StatusMaintenance); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	ch, _ := r.GetByName(name)
	if ch.Status != config.StatusMaintenance {
		t.Errorf("status not updated: got %s", ch.Status)
	}

	// 不存在的渠道是空操作
	if err := r.UpdateStatus("missing", config.StatusActive); err != nil {
		t.Errorf("UpdateStatus for absent channel should be a no-op, got: %v", err)
	}
}

func TestUsageCounters(t *testing.T) {
	r, _ := newTestRegistry(t)

	// 首次累加从0起计，负数也照常累加，不做下限截断
	r.AddUsage("c1", 100)
	r.AddUsage("c1", 50)
	r.AddUsage("c2", -30)

	usage := r.Usage()
	if usage["c1"] != 150 {
		t.Errorf("c1 usage: got %d, want 150", usage["c1"])
	}
	if usage["c2"] != -30 {
		t.Errorf("c2 usage: got %d, want -30", usage["c2"])
	}

	// Usage 返回的是拷贝，修改不影响内部计数
	usage["c1"] = 0
	if r.UsageOf("c1") != 150 {
		t.Error("Usage must return a copy, not the internal map")
	}

	r.ResetUsage()
	if len(r.Usage()) != 0 {
		t.Error("ResetUsage should clear all counters")
	}
}

func TestUsageConcurrent(t *testing.T) {
	r, _ := newTestRegistry(t)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.AddUsage("c", 1)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if got := r.UsageOf("c"); got != 1000 {
		t.Errorf("concurrent AddUsage lost updates: got %d, want 1000", got)
	}
}
