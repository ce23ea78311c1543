package models

import "testing"

func TestModerationSettingTypesRoundTrip(t *testing.T) {
	var setting ModerationSetting
	setting.SetTypes([]ContentKind{KindDeal, KindSweepstake})

	if setting.Types != "deal,sweepstake" {
		t.Errorf("Types 序列化 = %q", setting.Types)
	}

	set := setting.TypeSet()
	if !set[KindDeal] || !set[KindSweepstake] || set[KindPromo] {
		t.Errorf("TypeSet 解析不符: %v", set)
	}
}

func TestModerationSettingTypeSetTolerant(t *testing.T) {
	// 手工编辑或历史数据里可能有空格和空项
	setting := ModerationSetting{Types: " deal , ,promo,"}
	set := setting.TypeSet()
	if !set[KindDeal] || !set[KindPromo] {
		t.Errorf("带空格的类型串应能解析: %v", set)
	}
	if len(set) != 2 {
		t.Errorf("空项不应进入集合: %v", set)
	}
}

func TestRequiresReview(t *testing.T) {
	setting := ModerationSetting{Enabled: true}
	setting.SetTypes([]ContentKind{KindPromo})

	if setting.RequiresReview(KindDeal) {
		t.Errorf("不在审核类型列表里的内容不应需要审核")
	}
	if !setting.RequiresReview(KindPromo) {
		t.Errorf("列表内的类型应需要审核")
	}

	setting.Enabled = false
	if setting.RequiresReview(KindPromo) {
		t.Errorf("审核总开关关闭时任何类型都不需要审核")
	}
}

func TestContentStatusTerminal(t *testing.T) {
	cases := []struct {
		status ContentStatus
		want   bool
	}{
		{StatusDraft, false},
		{StatusPending, false},
		{StatusApproved, true},
		{StatusRejected, true},
	}
	for _, c := range cases {
		if got := c.status.Terminal(); got != c.want {
			t.Errorf("%s.Terminal() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestDealKind(t *testing.T) {
	deal := Deal{Type: DealTypeDeal}
	if deal.Kind() != KindDeal {
		t.Errorf("普通优惠的 Kind 应为 deal")
	}
	sweep := Deal{Type: DealTypeSweepstake}
	if sweep.Kind() != KindSweepstake {
		t.Errorf("抽奖的 Kind 应为 sweepstake")
	}
}

func TestValidContentKind(t *testing.T) {
	for _, k := range AllContentKinds() {
		if !ValidContentKind(string(k)) {
			t.Errorf("%s 应为合法类型", k)
		}
	}
	if ValidContentKind("article") {
		t.Errorf("未知类型不应通过校验")
	}
}
