package postgres_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/matchengine/internal/domain/enums"
	pgrepo "github.com/ivankudzin/tgapp/matchengine/internal/repo/postgres"
	conversationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/conversations"
	directorysvc "github.com/ivankudzin/tgapp/matchengine/internal/services/directory"
	notificationsvc "github.com/ivankudzin/tgapp/matchengine/internal/services/notifications"
	swipesvc "github.com/ivankudzin/tgapp/matchengine/internal/services/swipes"
)

// These tests run against a real database only when POSTGRES_TEST_DSN is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgrepo.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pgrepo.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

var lastUserID atomic.Int64

// seedUsers inserts n fresh profiles with ids unlikely to collide with earlier runs.
func seedUsers(t *testing.T, pool *pgxpool.Pool, n int) []int64 {
	t.Helper()

	lastUserID.CompareAndSwap(0, time.Now().UnixNano()/1000)
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id := lastUserID.Add(1)
		if _, err := pool.Exec(context.Background(),
			`INSERT INTO profiles (user_id, display_name, birthdate, last_seen_at) VALUES ($1, $2, DATE '1998-05-01', NOW())`,
			id, "it-user"); err != nil {
			t.Fatalf("seed profile: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

type pgEngine struct {
	swipes        *swipesvc.Service
	conversations *conversationsvc.Service
	notifications *pgrepo.NotificationRepo
	matches       *pgrepo.MatchRepo
	profiles      *pgrepo.ProfileRepo
}

func newPGEngine(pool *pgxpool.Pool) pgEngine {
	tx := pgrepo.NewTransactor(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	notificationRepo := pgrepo.NewNotificationRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	dir := directorysvc.NewService(directorysvc.Dependencies{Profiles: profileRepo}, directorysvc.Config{})
	fanout := notificationsvc.NewFanout(notificationsvc.FanoutDependencies{
		Store:   notificationRepo,
		Matches: matchRepo,
	}, 0)

	return pgEngine{
		swipes: swipesvc.NewService(swipesvc.Dependencies{
			Tx:         tx,
			SwipeStore: pgrepo.NewSwipeRepo(pool),
			MatchStore: matchRepo,
			Notifier:   fanout,
			Directory:  dir,
		}),
		conversations: conversationsvc.NewService(conversationsvc.Dependencies{
			Tx:        tx,
			Matches:   matchRepo,
			Messages:  pgrepo.NewMessageRepo(pool),
			Notifier:  fanout,
			Directory: dir,
		}, conversationsvc.Config{}),
		notifications: notificationRepo,
		matches:       matchRepo,
		profiles:      profileRepo,
	}
}

func TestPostgresConcurrentLikesCreateOneMatch(t *testing.T) {
	pool := testPool(t)
	engine := newPGEngine(pool)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		ids := seedUsers(t, pool, 2)
		a, b := ids[0], ids[1]

		var wg sync.WaitGroup
		results := make([]swipesvc.Result, 2)
		errs := make([]error, 2)
		for i, pair := range [][2]int64{{a, b}, {b, a}} {
			wg.Add(1)
			go func(i int, actor, target int64) {
				defer wg.Done()
				results[i], errs[i] = engine.swipes.RecordSwipe(ctx, actor, target, enums.SwipeActionLike)
			}(i, pair[0], pair[1])
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("round %d swipe %d: %v", round, i, err)
			}
		}
		created := 0
		for _, res := range results {
			if res.MatchCreated {
				created++
			}
		}
		if created != 1 {
			t.Fatalf("round %d: expected exactly one creator, got %+v", round, results)
		}

		m, found, err := engine.matches.GetByPair(ctx, nil, a, b)
		if err != nil || !found || !m.Active {
			t.Fatalf("round %d: match lookup found=%v err=%v match=%+v", round, found, err, m)
		}
		for _, user := range ids {
			items, err := engine.notifications.ListForRecipient(ctx, user, 50)
			if err != nil {
				t.Fatalf("list notifications: %v", err)
			}
			matchNotes := 0
			for _, n := range items {
				if n.Type == enums.NotificationTypeMatch {
					matchNotes++
				}
			}
			if matchNotes != 1 {
				t.Fatalf("round %d: user %d has %d match notifications", round, user, matchNotes)
			}
		}
	}
}

func TestPostgresMessageSequenceAndReadState(t *testing.T) {
	pool := testPool(t)
	engine := newPGEngine(pool)
	ctx := context.Background()

	ids := seedUsers(t, pool, 2)
	a, b := ids[0], ids[1]
	if _, err := engine.swipes.RecordSwipe(ctx, a, b, enums.SwipeActionLike); err != nil {
		t.Fatalf("like a->b: %v", err)
	}
	res, err := engine.swipes.RecordSwipe(ctx, b, a, enums.SwipeActionLike)
	if err != nil || res.MatchID == nil {
		t.Fatalf("like b->a: res=%+v err=%v", res, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(sender int64) {
			defer wg.Done()
			if _, err := engine.conversations.PostMessage(ctx, sender, *res.MatchID, "ping"); err != nil {
				t.Errorf("post message: %v", err)
			}
		}(ids[i%2])
	}
	wg.Wait()

	page, err := engine.conversations.ListMessages(ctx, a, *res.MatchID, 0, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	thread := page.Messages
	if len(thread) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(thread))
	}
	for i, msg := range thread {
		if msg.Seq != int64(i+1) {
			t.Fatalf("message %d has seq %d", i, msg.Seq)
		}
	}

	unread, err := engine.notifications.CountUnread(ctx, b)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	updated, err := engine.notifications.MarkAllRead(ctx, b, time.Now().UTC())
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if int(updated) != unread {
		t.Fatalf("mark all read updated %d, unread was %d", updated, unread)
	}
	if again, _ := engine.notifications.CountUnread(ctx, b); again != 0 {
		t.Fatalf("expected zero unread after mark all, got %d", again)
	}
}

func TestPostgresProfileSummaries(t *testing.T) {
	pool := testPool(t)
	engine := newPGEngine(pool)

	ids := seedUsers(t, pool, 1)
	got, err := engine.profiles.GetSummaries(context.Background(), append(ids, -1))
	if err != nil {
		t.Fatalf("get summaries: %v", err)
	}
	u, ok := got[ids[0]]
	if !ok || !u.Online || u.Age < 18 || u.DisplayName != "it-user" {
		t.Fatalf("unexpected summary: %+v ok=%v", u, ok)
	}
}
