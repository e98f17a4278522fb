package notification

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parley/infrastructure"
	"parley/internal/chat"
	"parley/internal/event"
	"parley/internal/user"
)

type recordingPublisher struct {
	channels []string
	fail     bool
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, _ any) error {
	if p.fail {
		return fmt.Errorf("publish channel down")
	}
	p.channels = append(p.channels, channel)
	return nil
}

type fixture struct {
	service   *Service
	publisher *recordingPublisher
	alice     *user.User
	bob       *user.User
	carol     *user.User
	group     *chat.Chat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&user.User{}, &chat.Chat{}, &chat.Participant{}, &Notification{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	users := user.NewRepository(db)
	chatRepo := chat.NewRepository(db)
	chats := chat.NewService(chatRepo, users)
	publisher := &recordingPublisher{}
	f := &fixture{
		service:   NewService(NewRepository(db), users, chatRepo, publisher),
		publisher: publisher,
	}
	ctx := context.Background()
	f.alice = seedUser(t, users, "Alice", "alice@example.com")
	f.bob = seedUser(t, users, "Bob", "bob@example.com")
	f.carol = seedUser(t, users, "Carol", "carol@example.com")

	f.group, err = chats.Create(ctx, f.alice.ID, chat.CreateInput{
		Type:           chat.TypeGroup,
		Name:           "book club",
		ParticipantIDs: []uint{f.alice.ID, f.bob.ID, f.carol.ID},
	})
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}
	return f
}

func seedUser(t *testing.T, users user.Repository, name, email string) *user.User {
	t.Helper()
	u := &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Status:       user.StatusActive,
		OnlineStatus: user.Offline,
		Role:         user.RoleGeneral,
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return u
}

func TestMessageCreatedFansOutToEveryoneButSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.service.MessageCreated(ctx, 42, f.group.ID, f.alice.ID); err != nil {
		t.Fatalf("message created: %v", err)
	}

	for _, id := range []uint{f.bob.ID, f.carol.ID} {
		ns, total, err := f.service.List(ctx, id, 0, 10)
		if err != nil {
			t.Fatalf("list for %d: %v", id, err)
		}
		if total != 1 {
			t.Fatalf("user %d has %d notifications, want 1", id, total)
		}
		if ns[0].Type != TypeNewMessage || *ns[0].MessageID != 42 {
			t.Fatalf("notification = %+v", ns[0])
		}
	}

	// The sender gets nothing.
	_, total, err := f.service.List(ctx, f.alice.ID, 0, 10)
	if err != nil {
		t.Fatalf("list for sender: %v", err)
	}
	if total != 0 {
		t.Fatalf("sender has %d notifications, want 0", total)
	}

	published := map[string]bool{}
	for _, ch := range f.publisher.channels {
		published[ch] = true
	}
	if len(f.publisher.channels) != 2 ||
		!published[event.UserChannel(f.bob.ID)] ||
		!published[event.UserChannel(f.carol.ID)] {
		t.Fatalf("published to %v", f.publisher.channels)
	}
}

func TestPublishFailureKeepsRecord(t *testing.T) {
	f := newFixture(t)
	f.publisher.fail = true
	ctx := context.Background()

	if err := f.service.FriendRequestCreated(ctx, f.alice.ID, f.bob.ID); err != nil {
		t.Fatalf("record must survive a failed publish: %v", err)
	}
	_, total, err := f.service.List(ctx, f.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Fatalf("notifications = %d, want 1", total)
	}
}

func TestFriendRequestContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.service.FriendRequestCreated(ctx, f.alice.ID, f.bob.ID); err != nil {
		t.Fatalf("friend request: %v", err)
	}
	ns, _, err := f.service.List(ctx, f.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if ns[0].Content != "Alice sent you a friend request" {
		t.Fatalf("content = %q", ns[0].Content)
	}
}

func TestGroupInviteContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.service.GroupInviteCreated(ctx, f.alice.ID, f.bob.ID, f.group.ID); err != nil {
		t.Fatalf("group invite: %v", err)
	}
	ns, _, err := f.service.List(ctx, f.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if ns[0].Content != "You have been invited to join group book club" {
		t.Fatalf("content = %q", ns[0].Content)
	}
}

func TestCallerScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.service.FriendRequestCreated(ctx, f.alice.ID, f.bob.ID); err != nil {
		t.Fatalf("friend request: %v", err)
	}
	ns, _, err := f.service.List(ctx, f.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	id := ns[0].ID

	if err := f.service.MarkAsRead(ctx, id, f.carol.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("foreign mark as read: expected unauthorized, got %v", err)
	}
	if err := f.service.Delete(ctx, id, f.carol.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("foreign delete: expected unauthorized, got %v", err)
	}

	if err := f.service.MarkAsRead(ctx, id, f.bob.ID); err != nil {
		t.Fatalf("own mark as read: %v", err)
	}
	n, err := f.service.UnreadCount(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if n != 0 {
		t.Fatalf("unread = %d, want 0", n)
	}

	if err := f.service.Delete(ctx, id, f.bob.ID); err != nil {
		t.Fatalf("own delete: %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.service.FriendRequestCreated(ctx, f.alice.ID, f.bob.ID); err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}
	if err := f.service.DeleteAll(ctx, f.bob.ID); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	_, total, err := f.service.List(ctx, f.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("notifications = %d, want 0", total)
	}
}

func TestMarkMessageRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.service.MessageCreated(ctx, 7, f.group.ID, f.alice.ID); err != nil {
		t.Fatalf("message created: %v", err)
	}
	if err := f.service.MarkMessageRead(ctx, 7, f.bob.ID); err != nil {
		t.Fatalf("mark message read: %v", err)
	}
	n, err := f.service.UnreadCount(ctx, f.bob.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if n != 0 {
		t.Fatalf("unread = %d, want 0", n)
	}

	// No notification for this message is a quiet no-op.
	if err := f.service.MarkMessageRead(ctx, 999, f.bob.ID); err != nil {
		t.Fatalf("missing notification: %v", err)
	}
}
