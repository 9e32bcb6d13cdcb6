package apiapp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	authsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/auth"
	conversationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/conversations"
	directorysvc "github.com/ivankudzin/tgapp/matchengine/internal/services/directory"
	inboxsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/inbox"
	matchessvc "github.com/ivankudzin/tgapp/matchengine/internal/services/matches"
	notificationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/notifications"
	swipesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/swipes"
	"github.com/ivankudzin/tgapp/matchengine/internal/testutil/memstore"
	"github.com/ivankudzin/tgapp/matchengine/internal/transport/http/handlers"
)

type testServer struct {
	handler http.Handler
	tokens  *authsvc.JWTManager
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	store := memstore.New()
	store.AddUser(
		model.UserSummary{ID: 1, DisplayName: "Ann"},
		model.UserSummary{ID: 2, DisplayName: "Ben"},
	)

	dir := directorysvc.NewService(directorysvc.Dependencies{Profiles: store.Profiles()}, directorysvc.Config{})
	fanout := notificationsvc.NewFanout(notificationsvc.FanoutDependencies{
		Store:   store.Notifications(),
		Matches: store.Matches(),
	}, 0)
	tokens := authsvc.NewJWTManager("route-secret", time.Minute)

	r := chi.NewRouter()
	ApplyMiddlewares(r, zap.NewNop(), []string{"https://app.example"})
	RegisterRoutes(r, Dependencies{
		Tokens: tokens,
		SwipeService: swipesvc.NewService(swipesvc.Dependencies{
			Tx:         store,
			SwipeStore: store.Swipes(),
			MatchStore: store.Matches(),
			Notifier:   fanout,
			Directory:  dir,
		}),
		InboxService: inboxsvc.NewService(inboxsvc.Dependencies{
			Swipes:    store.Swipes(),
			Matches:   store.Matches(),
			Messages:  store.Messages(),
			Directory: dir,
		}, inboxsvc.Config{}),
		MatchService: matchessvc.NewService(matchessvc.Dependencies{Tx: store, MatchStore: store.Matches()}),
		ConversationService: conversationsvc.NewService(conversationsvc.Dependencies{
			Tx:        store,
			Matches:   store.Matches(),
			Messages:  store.Messages(),
			Notifier:  fanout,
			Directory: dir,
		}, conversationsvc.Config{}),
		NotificationService: notificationsvc.NewService(notificationsvc.Dependencies{
			Tx:    store,
			Store: store.Notifications(),
		}, notificationsvc.Config{}),
		HealthChecks: map[string]handlers.Pinger{
			"postgres": func(context.Context) error { return nil },
		},
		Logger: zap.NewNop(),
	})

	return testServer{handler: r, tokens: tokens}
}

func (s testServer) do(t *testing.T, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID > 0 {
		token, _, err := s.tokens.IssueAccessToken(userID, "user")
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthzIsPublic(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/healthz", 0, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
}

func TestV1RoutesRequireBearer(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/v1/discover", "/v1/matches", "/v1/notifications", "/v1/likes/received"} {
		if rr := s.do(t, http.MethodGet, path, 0, nil); rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: unexpected status: got %d want %d", path, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestRoutesServeMatchAndThread(t *testing.T) {
	s := newTestServer(t)

	if rr := s.do(t, http.MethodPost, "/v1/swipes", 1, map[string]any{"target_id": 2, "action": "like"}); rr.Code != http.StatusOK {
		t.Fatalf("first swipe: status %d body %s", rr.Code, rr.Body.String())
	}

	likes := s.do(t, http.MethodGet, "/v1/swipes/likes-me", 2, nil)
	var likesPayload struct {
		Items []struct {
			User struct {
				ID int64 `json:"id"`
			} `json:"user"`
		} `json:"items"`
	}
	if err := json.Unmarshal(likes.Body.Bytes(), &likesPayload); err != nil {
		t.Fatalf("decode likes: %v", err)
	}
	if len(likesPayload.Items) != 1 || likesPayload.Items[0].User.ID != 1 {
		t.Fatalf("unexpected likes via alias route: %s", likes.Body.String())
	}

	rr := s.do(t, http.MethodPost, "/v1/swipes", 2, map[string]any{"target_id": 1, "action": "like"})
	var swipe struct {
		IsMatch bool   `json:"is_match"`
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &swipe); err != nil {
		t.Fatalf("decode swipe: %v", err)
	}
	if !swipe.IsMatch || swipe.MatchID == "" {
		t.Fatalf("expected match: %s", rr.Body.String())
	}

	if rr := s.do(t, http.MethodPost, "/v1/messages", 1, map[string]any{"match_id": swipe.MatchID, "content": "hello"}); rr.Code != http.StatusCreated {
		t.Fatalf("post message: status %d body %s", rr.Code, rr.Body.String())
	}

	for _, path := range []string{
		"/v1/matches/" + swipe.MatchID + "/messages",
		"/v1/messages/" + swipe.MatchID,
	} {
		rr := s.do(t, http.MethodGet, path, 2, nil)
		var thread struct {
			Items []struct {
				Seq     int64  `json:"seq"`
				Content string `json:"content"`
			} `json:"items"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &thread); err != nil {
			t.Fatalf("%s: decode thread: %v", path, err)
		}
		if len(thread.Items) != 1 || thread.Items[0].Seq != 1 || thread.Items[0].Content != "hello" {
			t.Fatalf("%s: unexpected thread %s", path, rr.Body.String())
		}
	}

	if rr := s.do(t, http.MethodPut, "/v1/notifications/read-all", 2, nil); rr.Code != http.StatusOK {
		t.Fatalf("read-all: status %d body %s", rr.Code, rr.Body.String())
	}
	count := s.do(t, http.MethodGet, "/v1/notifications/unread-count", 2, nil)
	var unread struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := json.Unmarshal(count.Body.Bytes(), &unread); err != nil {
		t.Fatalf("decode unread count: %v", err)
	}
	if unread.UnreadCount != 0 {
		t.Fatalf("expected no unread notifications after read-all, got %d", unread.UnreadCount)
	}

	if rr := s.do(t, http.MethodPost, "/v1/matches/"+swipe.MatchID+"/unmatch", 2, nil); rr.Code != http.StatusOK {
		t.Fatalf("unmatch: status %d body %s", rr.Code, rr.Body.String())
	}
	if rr := s.do(t, http.MethodPost, "/v1/messages", 1, map[string]any{"match_id": swipe.MatchID, "content": "still there?"}); rr.Code != http.StatusConflict {
		t.Fatalf("post after unmatch: got %d want %d", rr.Code, http.StatusConflict)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/matches", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("unexpected allow-origin header: %q", got)
	}
}
