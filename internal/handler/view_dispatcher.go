package handler

import (
	"log"
	"time"

	"github.com/inkstream/internal/service"
)

// asyncViewDispatcher 把浏览事件异步写入统计表。
// 投递即忘：错误只记日志，不重试，绝不影响阅读路径。
type asyncViewDispatcher struct {
	analytics *service.AnalyticsService
}

func (d *asyncViewDispatcher) DispatchView(postID uint, sessionToken string) {
	go func() {
		if err := d.analytics.RecordView(postID, sessionToken, time.Now()); err != nil {
			log.Printf("view dispatch failed for post %d: %v", postID, err)
		}
	}()
}
