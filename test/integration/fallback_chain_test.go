//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haven-oss/haven/internal/config"
	"github.com/haven-oss/haven/internal/session"
	"github.com/haven-oss/haven/internal/transport"
)

// An edge that answers twice, then starts failing. The chain must degrade
// to local synthesis without the caller noticing a failure.
func TestFallbackChainEndToEnd(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) > 2 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response":  "edge reply",
			"timestamp": time.Now().UnixMilli(),
			"processed": true,
		})
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Session.TransportPriority = []string{"edge", "local"}
	cfg.Session.StorageMode = "local"
	cfg.Session.ChannelTimeout = "1s"
	cfg.Edge.URL = srv.URL

	sess, err := session.Open(session.Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	for i := 0; i < 4; i++ {
		reply, err := sess.Send(context.Background(), "check my answer please", nil)
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if i < 2 {
			if reply.Channel != transport.KindEdge || reply.Text != "edge reply" {
				t.Errorf("send %d: reply = %+v, want edge", i, reply)
			}
		} else {
			if !reply.Local {
				t.Errorf("send %d: reply = %+v, want local fallback", i, reply)
			}
		}
	}
}
