package inbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	"github.com/ivankudzin/tgapp/matchengine/internal/domain/model"
	conversationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/conversations"
	directorysvc "github.com/ivankudzin/tgapp/matchengine/internal/services/directory"
	notificationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/notifications"
	swipesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/swipes"
	"github.com/ivankudzin/tgapp/matchengine/internal/testutil/memstore"
)

const (
	userA int64 = 1
	userB int64 = 2
	userC int64 = 3
	userD int64 = 4
	userE int64 = 5
)

type engine struct {
	store         *memstore.Store
	inbox         *Service
	swipes        *swipesvc.Service
	conversations *conversationsvc.Service
	notifications *notificationsvc.Service
}

func newEngine(t *testing.T) engine {
	t.Helper()

	store := memstore.New()
	for _, u := range []model.UserSummary{
		{ID: userA, DisplayName: "Ann"},
		{ID: userB, DisplayName: "Ben"},
		{ID: userC, DisplayName: "Cat"},
		{ID: userD, DisplayName: "Dan"},
		{ID: userE, DisplayName: "Eva"},
	} {
		store.AddUser(u)
	}

	dir := directorysvc.NewService(directorysvc.Dependencies{Profiles: store.Profiles()}, directorysvc.Config{})
	fanout := notificationsvc.NewFanout(notificationsvc.FanoutDependencies{
		Store:   store.Notifications(),
		Matches: store.Matches(),
	}, 0)

	return engine{
		store: store,
		inbox: NewService(Dependencies{
			Swipes:    store.Swipes(),
			Matches:   store.Matches(),
			Messages:  store.Messages(),
			Directory: dir,
		}, Config{}),
		swipes: swipesvc.NewService(swipesvc.Dependencies{
			Tx:         store,
			SwipeStore: store.Swipes(),
			MatchStore: store.Matches(),
			Notifier:   fanout,
			Directory:  dir,
		}),
		conversations: conversationsvc.NewService(conversationsvc.Dependencies{
			Tx:        store,
			Matches:   store.Matches(),
			Messages:  store.Messages(),
			Notifier:  fanout,
			Directory: dir,
		}, conversationsvc.Config{}),
		notifications: notificationsvc.NewService(notificationsvc.Dependencies{
			Tx:    store,
			Store: store.Notifications(),
		}, notificationsvc.Config{}),
	}
}

func (e engine) swipe(t *testing.T, actor, target int64, action enums.SwipeAction) swipesvc.Result {
	t.Helper()
	res, err := e.swipes.RecordSwipe(context.Background(), actor, target, action)
	if err != nil {
		t.Fatalf("swipe %d->%d: %v", actor, target, err)
	}
	// distinct updated_at values keep newest-first ordering deterministic
	time.Sleep(2 * time.Millisecond)
	return res
}

func ids(users []model.UserSummary) map[int64]bool {
	out := make(map[int64]bool, len(users))
	for _, u := range users {
		out[u.ID] = true
	}
	return out
}

func TestScenarioLikeMatchMessage(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	if res := e.swipe(t, userA, userB, enums.SwipeActionLike); res.Matched {
		t.Fatalf("one-sided like must not match")
	}

	likes, err := e.inbox.LikesReceived(ctx, userB)
	if err != nil {
		t.Fatalf("likes received: %v", err)
	}
	if len(likes) != 1 || likes[0].User.ID != userA {
		t.Fatalf("expected B to see A's like, got %+v", likes)
	}

	res := e.swipe(t, userB, userA, enums.SwipeActionLike)
	if !res.Matched || res.MatchID == nil {
		t.Fatalf("expected match, got %+v", res)
	}

	for _, pair := range [][2]int64{{userA, userB}, {userB, userA}} {
		previews, err := e.inbox.MatchesWithPreview(ctx, pair[0])
		if err != nil {
			t.Fatalf("matches with preview for %d: %v", pair[0], err)
		}
		if len(previews) != 1 || previews[0].OtherUser.ID != pair[1] || previews[0].LastMessage != nil {
			t.Fatalf("unexpected previews for %d: %+v", pair[0], previews)
		}
	}

	if likes, _ := e.inbox.LikesReceived(ctx, userB); len(likes) != 0 {
		t.Fatalf("matched pair must leave likes received, got %+v", likes)
	}

	if _, err := e.conversations.PostMessage(ctx, userB, *res.MatchID, "hi"); err != nil {
		t.Fatalf("post message: %v", err)
	}

	previews, err := e.inbox.MatchesWithPreview(ctx, userA)
	if err != nil {
		t.Fatalf("matches with preview after message: %v", err)
	}
	if len(previews) != 1 || previews[0].LastMessage == nil || previews[0].LastMessage.Content != "hi" {
		t.Fatalf("expected last message hi, got %+v", previews)
	}

	notes, err := e.notifications.List(ctx, userA, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	unreadMessages := 0
	for _, n := range notes {
		if n.Type == enums.NotificationTypeMessage && !n.Read {
			unreadMessages++
		}
	}
	if unreadMessages != 1 {
		t.Fatalf("expected one unread message notification for A, got %d (%+v)", unreadMessages, notes)
	}
}

func TestLikesReceivedExcludesPassedUsers(t *testing.T) {
	e := newEngine(t)

	e.swipe(t, userA, userB, enums.SwipeActionPass)
	e.swipe(t, userB, userA, enums.SwipeActionLike)
	e.swipe(t, userC, userA, enums.SwipeActionLike)
	e.swipe(t, userD, userA, enums.SwipeActionPass)

	likes, err := e.inbox.LikesReceived(context.Background(), userA)
	if err != nil {
		t.Fatalf("likes received: %v", err)
	}
	if len(likes) != 1 || likes[0].User.ID != userC {
		t.Fatalf("expected only C, got %+v", likes)
	}
}

func TestLikesReceivedHidesUnmatchedPair(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	e.swipe(t, userB, userA, enums.SwipeActionLike)
	res := e.swipe(t, userA, userB, enums.SwipeActionLike)
	if err := e.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := e.store.Matches().Deactivate(ctx, tx, *res.MatchID, time.Now())
		return err
	}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// B liking again cannot bring the match back, so A is not offered the like.
	if again := e.swipe(t, userB, userA, enums.SwipeActionLike); again.Matched {
		t.Fatalf("unmatched pair must not match again: %+v", again)
	}
	likes, err := e.inbox.LikesReceived(ctx, userA)
	if err != nil {
		t.Fatalf("likes received: %v", err)
	}
	if len(likes) != 0 {
		t.Fatalf("expected no likes from an unmatched pair, got %+v", likes)
	}
}

func TestLikesReceivedNewestFirst(t *testing.T) {
	e := newEngine(t)

	e.swipe(t, userB, userA, enums.SwipeActionLike)
	e.swipe(t, userC, userA, enums.SwipeActionLike)
	e.swipe(t, userD, userA, enums.SwipeActionLike)

	likes, err := e.inbox.LikesReceived(context.Background(), userA)
	if err != nil {
		t.Fatalf("likes received: %v", err)
	}
	if len(likes) != 3 || likes[0].User.ID != userD || likes[2].User.ID != userB {
		t.Fatalf("expected newest like first, got %+v", likes)
	}
}

func TestDiscoverQueueExclusions(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	e.swipe(t, userA, userB, enums.SwipeActionLike)
	e.swipe(t, userA, userC, enums.SwipeActionPass)
	e.swipe(t, userD, userA, enums.SwipeActionPass)
	e.swipe(t, userE, userA, enums.SwipeActionLike)

	queue, err := e.inbox.DiscoverQueue(ctx, userA, 0)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	got := ids(queue)
	if len(got) != 1 || !got[userE] {
		t.Fatalf("expected only E (liked A, not yet swiped), got %v", got)
	}

	limited, err := e.inbox.DiscoverQueue(ctx, userB, 2)
	if err != nil {
		t.Fatalf("discover with limit: %v", err)
	}
	if len(limited) != 2 || ids(limited)[userB] {
		t.Fatalf("expected 2 candidates without self, got %+v", limited)
	}
}

func TestMatchesWithPreviewOrdering(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	matchIDs := map[int64]uuid.UUID{}
	for _, other := range []int64{userB, userC, userD} {
		e.swipe(t, other, userA, enums.SwipeActionLike)
		res := e.swipe(t, userA, other, enums.SwipeActionLike)
		matchIDs[other] = *res.MatchID
	}

	// D matched last, but B spoke most recently; C has no messages.
	if _, err := e.conversations.PostMessage(ctx, userD, matchIDs[userD], "first"); err != nil {
		t.Fatalf("post: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := e.conversations.PostMessage(ctx, userB, matchIDs[userB], "latest"); err != nil {
		t.Fatalf("post: %v", err)
	}

	previews, err := e.inbox.MatchesWithPreview(ctx, userA)
	if err != nil {
		t.Fatalf("matches with preview: %v", err)
	}
	if len(previews) != 3 {
		t.Fatalf("expected 3 previews, got %d", len(previews))
	}
	order := []int64{previews[0].OtherUser.ID, previews[1].OtherUser.ID, previews[2].OtherUser.ID}
	if order[0] != userB || order[1] != userD || order[2] != userC {
		t.Fatalf("unexpected activity order: %v", order)
	}
	if previews[2].LastMessage != nil || !previews[2].LastActivityAt.Equal(previews[2].Match.CreatedAt) {
		t.Fatalf("silent match must fall back to creation time: %+v", previews[2])
	}

	if err := e.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := e.store.Matches().Deactivate(ctx, tx, matchIDs[userB], time.Now())
		return err
	}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	previews, err = e.inbox.MatchesWithPreview(ctx, userA)
	if err != nil {
		t.Fatalf("matches with preview after unmatch: %v", err)
	}
	if len(previews) != 2 {
		t.Fatalf("inactive matches must be hidden, got %d", len(previews))
	}
}

func TestReadsDoNotWrite(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	e.swipe(t, userA, userB, enums.SwipeActionLike)
	before := e.store.TxCount()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.inbox.DiscoverQueue(ctx, userA, 0)
			_, _ = e.inbox.MatchesWithPreview(ctx, userA)
			_, _ = e.inbox.LikesReceived(ctx, userB)
		}()
	}
	wg.Wait()

	if e.store.TxCount() != before {
		t.Fatalf("reads must not open write transactions")
	}
}
