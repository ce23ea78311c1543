package services

import (
	"log"
	"sync"
	"time"

	"haoquan/internal/db"
	"haoquan/internal/models"
	"haoquan/internal/utils"
)

// RankingService 提供异步计算和更新优惠热度的服务
type RankingService struct {
	queue   chan uint // 待更新的优惠 ID 队列
	pending map[uint]bool
	mu      sync.Mutex
}

var (
	rankingService *RankingService
	once           sync.Once
)

// GetRankingService 获取单例排名服务
func GetRankingService() *RankingService {
	once.Do(func() {
		rankingService = &RankingService{
			queue:   make(chan uint, 1000), // 缓冲队列，防止阻塞
			pending: make(map[uint]bool),
		}
		// 启动后台 worker
		go rankingService.worker()
	})
	return rankingService
}

// ScheduleUpdate 将优惠加入热度更新队列（异步）
// 使用去重机制避免短时间内重复计算同一条优惠
func (s *RankingService) ScheduleUpdate(dealID uint) {
	s.mu.Lock()
	if s.pending[dealID] {
		// 已在队列中，跳过
		s.mu.Unlock()
		return
	}
	s.pending[dealID] = true
	s.mu.Unlock()

	// 非阻塞发送到队列
	select {
	case s.queue <- dealID:
		// 成功加入队列
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, dealID)
		s.mu.Unlock()
		log.Printf("热度更新队列已满，跳过优惠 %d", dealID)
	}
}

// worker 后台处理队列中的更新请求
func (s *RankingService) worker() {
	// 批量处理：收集一批请求后统一处理
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond) // 每 500ms 处理一批
	defer ticker.Stop()

	for {
		select {
		case dealID := <-s.queue:
			batch = append(batch, dealID)
			// 如果达到批量大小，立即处理
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			// 定时处理剩余的
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

// processBatch 批量处理优惠热度更新
func (s *RankingService) processBatch(dealIDs []uint) {
	for _, dealID := range dealIDs {
		s.updateDealHeat(dealID)

		// 清除 pending 状态
		s.mu.Lock()
		delete(s.pending, dealID)
		s.mu.Unlock()
	}
}

// updateDealHeat 计算并更新单条优惠的热度分
func (s *RankingService) updateDealHeat(dealID uint) {
	var deal models.Deal
	if err := db.DB.First(&deal, dealID).Error; err != nil {
		log.Printf("更新热度失败：优惠 %d 不存在", dealID)
		return
	}

	// 统计点赞数
	var upvotes int64
	db.DB.Model(&models.Vote{}).Where("deal_id = ? AND value = 1", dealID).Count(&upvotes)

	// 统计点踩数
	var downvotes int64
	db.DB.Model(&models.Vote{}).Where("deal_id = ? AND value = -1", dealID).Count(&downvotes)

	// 统计收藏数
	var bookmarks int64
	db.DB.Model(&models.Bookmark{}).Where("deal_id = ?", dealID).Count(&bookmarks)

	// 统计评论数
	var comments int64
	db.DB.Model(&models.Comment{}).Where("deal_id = ?", dealID).Count(&comments)

	newHeat := utils.CalculateHeat(
		deal.CreatedAt,
		deal.EndsAt,
		int(upvotes),
		int(downvotes),
		int(bookmarks),
		int(comments),
	)

	// 热度是 0-100 区间的整数
	heatInt := int(newHeat)

	if err := db.DB.Model(&deal).UpdateColumn("score", heatInt).Error; err != nil {
		log.Printf("更新优惠 %d 热度失败: %v", dealID, err)
	}
}

// UpdateDealHeatSync 同步更新优惠热度（用于需要立即生效的场景）
func UpdateDealHeatSync(dealID uint) {
	GetRankingService().updateDealHeat(dealID)
}
