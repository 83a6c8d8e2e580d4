package httpserver

import (
	"io"
	"net/http"
	"time"

	"tailorshop/internal/events"

	"github.com/gin-gonic/gin"
)

func (h *handlers) orderEvents(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}
	h.stream(c, events.ForEntity(o.ID))
}

func (h *handlers) myEvents(c *gin.Context) {
	s, _ := currentSession(c)
	h.stream(c, events.ForCustomer(s.Email))
}

// stream writes matching events as server-sent events until the client leaves.
func (h *handlers) stream(c *gin.Context, filter events.Filter) {
	if h.deps.Events == nil {
		abortError(c, http.StatusServiceUnavailable, "unavailable", "live updates are disabled")
		return
	}
	ch, cancel := h.deps.Events.Subscribe(filter)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()
	ticker := time.NewTicker(h.deps.Heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(e.Type, e)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
