package utils

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	cache := GetCache()
	cache.Set("test:k1", "v1", time.Minute)

	if got := cache.Get("test:k1"); got != "v1" {
		t.Errorf("Get = %v, want v1", got)
	}

	cache.Delete("test:k1")
	if got := cache.Get("test:k1"); got != nil {
		t.Errorf("删除后 Get 应返回 nil, got %v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := GetCache()
	cache.Set("test:k2", "v2", -time.Second) // 已过期

	if got := cache.Get("test:k2"); got != nil {
		t.Errorf("过期条目 Get 应返回 nil, got %v", got)
	}
}

// GetStale 忽略过期时间，降级展示时用
func TestCacheGetStale(t *testing.T) {
	cache := GetCache()
	cache.Set("test:k3", "v3", -time.Second)

	if got := cache.GetStale("test:k3"); got != "v3" {
		t.Errorf("GetStale 应返回过期数据, got %v", got)
	}
	// Get 过期时会顺手删除，之后 GetStale 也拿不到了
	cache.Get("test:k3")
	if got := cache.GetStale("test:k3"); got != nil {
		t.Errorf("条目被清除后 GetStale 应返回 nil, got %v", got)
	}
}
