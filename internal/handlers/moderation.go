package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"haoquan/internal/middleware"
	"haoquan/internal/models"
	"haoquan/internal/services"
	"haoquan/internal/utils"

	"github.com/gin-gonic/gin"
)

// 队列页降级缓存的 key：整轮对账超时/失败时回退到上一次成功的结果
const queueCacheKey = "mod:queue:last"

type ModerationHandler struct{}

func NewModerationHandler() *ModerationHandler {
	return &ModerationHandler{}
}

// Queue 审核队列页。每次加载都是一次对账：孤儿行被清理、
// 漂移状态被修正，返回的计数与列表来自同一轮遍历。
func (h *ModerationHandler) Queue(c *gin.Context) {
	kindFilter := models.ContentKind("")
	if k := c.Query("kind"); k != "" && models.ValidContentKind(k) {
		kindFilter = models.ContentKind(k)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), services.ReconcileTimeout)
	defer cancel()

	entries, count, err := services.ListPendingEnriched(ctx, kindFilter)
	if err != nil {
		log.Printf("审核队列加载失败: %v", err)
		// 超时或存储故障：回退到上一次成功的结果，不让审核页直接挂掉
		if cached := utils.GetCache().GetStale(queueCacheKey); cached != nil {
			if hData, ok := cached.(gin.H); ok {
				hData["Stale"] = true
				Render(c, http.StatusOK, "moderation/queue.html", hData)
				return
			}
		}
		RenderError(c, http.StatusServiceUnavailable, "审核队列暂时不可用，请稍后重试")
		return
	}

	renderData := gin.H{
		"Title":        "审核队列",
		"Entries":      entries,
		"PendingCount": count,
		"KindFilter":   string(kindFilter),
		"Kinds":        models.AllContentKinds(),
		"Active":       "moderation",
	}

	// 无过滤的完整结果作为降级数据保留
	if kindFilter == "" {
		utils.GetCache().Set(queueCacheKey, renderData, services.ReconcileTimeout)
	}

	Render(c, http.StatusOK, "moderation/queue.html", renderData)
}

// Approve 审核通过。操作幂等，重复点击和重试都只产生一次效果。
func (h *ModerationHandler) Approve(c *gin.Context) {
	h.decide(c, models.StatusApproved)
}

// Reject 审核驳回，备注作为驳回原因展示给提交者
func (h *ModerationHandler) Reject(c *gin.Context) {
	h.decide(c, models.StatusRejected)
}

func (h *ModerationHandler) decide(c *gin.Context, target models.ContentStatus) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	kindStr := c.Param("kind")
	if !models.ValidContentKind(kindStr) {
		c.Status(http.StatusBadRequest)
		return
	}
	kind := models.ContentKind(kindStr)

	itemID := utils.StringToUint(c.Param("id"))
	if itemID == 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	var err error
	if target == models.StatusApproved {
		err = services.Approve(itemID, kind, user)
	} else {
		note := utils.SanitizeText(c.PostForm("note"))
		err = services.Reject(itemID, kind, user, note)
	}

	switch err {
	case nil:
		// fallthrough below
	case services.ErrUnauthorized:
		c.Status(http.StatusForbidden)
		return
	case services.ErrNotFound:
		// 内容已被删除：队列残留行交给下面的重新加载清理
	case services.ErrAlreadyDecided:
		c.String(http.StatusConflict, "该内容已由其他审核员处理")
		return
	default:
		// 权威写失败。操作幂等，审核员可以安全重试
		log.Printf("审核操作失败 %s/%d: %v", kind, itemID, err)
		c.String(http.StatusInternalServerError, "操作失败，请重试")
		return
	}

	// 决策后立即重跑一轮对账，让调用方拿到一致的待审计数
	ctx, cancel := context.WithTimeout(c.Request.Context(), services.ReconcileTimeout)
	defer cancel()
	_, count, lerr := services.ListPendingEnriched(ctx, "")
	if lerr != nil {
		// 计数拿不到就让前端整页刷新
		c.Header("HX-Refresh", "true")
		c.Status(http.StatusOK)
		return
	}

	c.String(http.StatusOK, fmt.Sprintf("%d", count))
}
