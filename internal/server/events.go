package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asmitswain/portfolio/internal/rotator"
	"github.com/asmitswain/portfolio/internal/scroll"
)

type roleEvent struct {
	Index int    `json:"index"`
	Role  string `json:"role"`
}

type streamEvent struct {
	name string
	data any
}

// roleStream pushes the rotating hero role, and the visitor's scroll state
// as it is reported, for as long as the client stays connected. The ticker
// and the scroll subscription are released when the request ends.
func (s *Server) roleStream(c *gin.Context) {
	rot, err := rotator.New(s.content.Roles(), s.cfg.RoleInterval)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "internal", "No roles to rotate")
		return
	}
	sess := s.session(c)

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := make(chan streamEvent, 8)
	sub := sess.Scroll.Subscribe(func(st scroll.State) {
		select {
		case events <- streamEvent{"scroll", st}:
		default:
			// A slow client only needs the latest state; drop this one.
		}
	})
	defer sub.Close()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = rot.Run(ctx, func(idx int, role string) {
			select {
			case events <- streamEvent{"role", roleEvent{Index: idx, Role: role}}:
			case <-ctx.Done():
			}
		})
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("role", roleEvent{Index: rot.Index(), Role: rot.Current()})
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("role stream closed", zap.String("visitor_id", sess.VisitorID))
			return
		case ev := <-events:
			c.SSEvent(ev.name, ev.data)
			c.Writer.Flush()
		}
	}
}
