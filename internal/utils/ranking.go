package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity        float64 // 时间重力
	WeightBookmark float64
	WeightComment  float64
	WeightUpvote   float64
	WeightDownvote float64
	ScaleFactor    float64 // 放大系数
}

var DefaultConfig = RankConfig{
	Gravity:        1.5,
	WeightBookmark: 3.0,
	WeightComment:  2.0,
	WeightUpvote:   1.0,
	WeightDownvote: 1.5,
	ScaleFactor:    100.0, // 让热度落在 0-100 区间
}

// CalculateHeat 计算优惠热度：加权互动取对数平滑后按时间衰减。
// 过期的优惠直接归零，不再参与热门排序。
func CalculateHeat(createdAt time.Time, endsAt *time.Time, up, down, bookmark, comment int) float64 {
	if endsAt != nil && time.Now().After(*endsAt) {
		return 0
	}

	hours := time.Since(createdAt).Hours()

	weightedSum := (float64(up) * DefaultConfig.WeightUpvote) +
		(float64(comment) * DefaultConfig.WeightComment) +
		(float64(bookmark) * DefaultConfig.WeightBookmark) -
		(float64(down) * DefaultConfig.WeightDownvote)

	// 防止负数无法取对数
	if weightedSum < 0 {
		weightedSum = 0
	}

	// log10(sum + 1) -> 确保 sum=0 时结果为 0
	logScore := math.Log10(weightedSum + 1)
	numerator := logScore * DefaultConfig.ScaleFactor

	// 时间衰减 (分母)
	decay := math.Pow(hours+2, DefaultConfig.Gravity)

	return numerator / decay
}
