package bluesky

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/scorethread/scorethread/internal/domain/post"
	"github.com/scorethread/scorethread/internal/usecase"
)

type xrpcServer struct {
	mu            sync.Mutex
	sessions      int
	refreshes     int
	records       []map[string]any
	expireFirst   bool
	recordedAuths []string
}

func (s *xrpcServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			s.sessions++
			_, _ = w.Write([]byte(`{"did":"did:plc:abc","accessJwt":"access-1","refreshJwt":"refresh-1"}`))
		case "/xrpc/com.atproto.server.refreshSession":
			s.refreshes++
			_, _ = w.Write([]byte(`{"did":"did:plc:abc","accessJwt":"access-2","refreshJwt":"refresh-2"}`))
		case "/xrpc/com.atproto.repo.createRecord":
			s.recordedAuths = append(s.recordedAuths, r.Header.Get("Authorization"))
			if s.expireFirst && len(s.records) == 0 && r.Header.Get("Authorization") == "Bearer access-1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"ExpiredToken","message":"token expired"}`))
				return
			}
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				t.Errorf("read body: %v", err)
			}
			var payload map[string]any
			if err := json.Unmarshal(raw, &payload); err != nil {
				t.Errorf("decode body: %v", err)
			}
			s.records = append(s.records, payload)
			_, _ = w.Write([]byte(`{"uri":"at://did:plc:abc/app.bsky.feed.post/3k","cid":"bafy-3k"}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		ServiceURL: url,
		Identifier: "bot.example.com",
		Password:   "app-password",
	})
}

func TestClient_PublishRootPost(t *testing.T) {
	t.Parallel()

	server := &xrpcServer{}
	ts := httptest.NewServer(server.handler(t))
	defer ts.Close()

	client := newTestClient(ts.URL)

	ref, err := client.Publish(context.Background(), "kickoff!", nil)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ref.URI != "at://did:plc:abc/app.bsky.feed.post/3k" || ref.CID != "bafy-3k" {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	if server.sessions != 1 {
		t.Fatalf("expected one session, got=%d", server.sessions)
	}
	if len(server.records) != 1 {
		t.Fatalf("expected one record, got=%d", len(server.records))
	}

	record := server.records[0]["record"].(map[string]any)
	if record["text"] != "kickoff!" {
		t.Fatalf("unexpected text: %v", record["text"])
	}
	if _, hasReply := record["reply"]; hasReply {
		t.Fatal("root post must not carry a reply block")
	}
}

func TestClient_PublishReplyCarriesBothRefs(t *testing.T) {
	t.Parallel()

	server := &xrpcServer{}
	ts := httptest.NewServer(server.handler(t))
	defer ts.Close()

	client := newTestClient(ts.URL)

	reply := &usecase.ReplyRefs{
		Parent: post.Ref{URI: "at://parent", CID: "cid-parent"},
		Root:   post.Ref{URI: "at://root", CID: "cid-root"},
	}
	if _, err := client.Publish(context.Background(), "touchdown", reply); err != nil {
		t.Fatalf("publish: %v", err)
	}

	record := server.records[0]["record"].(map[string]any)
	replyBlock, ok := record["reply"].(map[string]any)
	if !ok {
		t.Fatal("reply block missing")
	}
	parent := replyBlock["parent"].(map[string]any)
	root := replyBlock["root"].(map[string]any)
	if parent["uri"] != "at://parent" || parent["cid"] != "cid-parent" {
		t.Fatalf("unexpected parent: %+v", parent)
	}
	if root["uri"] != "at://root" || root["cid"] != "cid-root" {
		t.Fatalf("unexpected root: %+v", root)
	}
}

func TestClient_RefreshesExpiredSessionOnce(t *testing.T) {
	t.Parallel()

	server := &xrpcServer{expireFirst: true}
	ts := httptest.NewServer(server.handler(t))
	defer ts.Close()

	client := newTestClient(ts.URL)

	if _, err := client.Publish(context.Background(), "still going", nil); err != nil {
		t.Fatalf("publish after refresh: %v", err)
	}

	if server.refreshes != 1 {
		t.Fatalf("expected one refresh, got=%d", server.refreshes)
	}
	last := server.recordedAuths[len(server.recordedAuths)-1]
	if last != "Bearer access-2" {
		t.Fatalf("retry must use the refreshed token, got=%s", last)
	}

	// Session reuse: a second publish must not create a new session.
	if _, err := client.Publish(context.Background(), "again", nil); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if server.sessions != 1 {
		t.Fatalf("expected session reuse, sessions=%d", server.sessions)
	}
}
