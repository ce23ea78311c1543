package utils

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("哈希失败: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatalf("哈希不应等于明文")
	}
	if !CheckPassword("s3cret!", hash) {
		t.Errorf("正确密码校验失败")
	}
	if CheckPassword("wrong", hash) {
		t.Errorf("错误密码不应通过校验")
	}
}
