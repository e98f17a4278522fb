package message

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parley/infrastructure"
	"parley/internal/chat"
	"parley/internal/user"
)

type stubBlocks struct {
	blocked bool
}

func (s *stubBlocks) BlockedBetween(context.Context, uint, uint) (bool, error) {
	return s.blocked, nil
}

type recordingNotifier struct {
	messages []uint
}

func (n *recordingNotifier) MessageCreated(_ context.Context, messageID, _, _ uint) error {
	n.messages = append(n.messages, messageID)
	return nil
}

type fixture struct {
	db       *gorm.DB
	service  *Service
	blocks   *stubBlocks
	notifier *recordingNotifier
	alice    *user.User
	bob      *user.User
	carol    *user.User
	group    *chat.Chat
	direct   *chat.Chat
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
	err = db.AutoMigrate(&user.User{}, &chat.Chat{}, &chat.Participant{}, &Message{}, &MessageRead{}, &Attachment{})
	if err != nil {
		t.Fatalf("migrating: %v", err)
	}

	users := user.NewRepository(db)
	chatRepo := chat.NewRepository(db)
	chats := chat.NewService(chatRepo, users)
	blocks := &stubBlocks{}
	notifier := &recordingNotifier{}
	f := &fixture{
		db:       db,
		service:  NewService(NewRepository(db), chatRepo, blocks, notifier),
		blocks:   blocks,
		notifier: notifier,
	}
	ctx := context.Background()
	f.alice = seedUser(t, users, "alice@example.com")
	f.bob = seedUser(t, users, "bob@example.com")
	f.carol = seedUser(t, users, "carol@example.com")

	f.group, err = chats.Create(ctx, f.alice.ID, chat.CreateInput{
		Type:           chat.TypeGroup,
		Name:           "book club",
		ParticipantIDs: []uint{f.alice.ID, f.bob.ID, f.carol.ID},
	})
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}
	f.direct, err = chats.Create(ctx, f.alice.ID, chat.CreateInput{
		Type:           chat.TypeOneToOne,
		ParticipantIDs: []uint{f.bob.ID},
	})
	if err != nil {
		t.Fatalf("creating one-to-one: %v", err)
	}
	return f
}

func seedUser(t *testing.T, users user.Repository, email string) *user.User {
	t.Helper()
	u := &user.User{
		Name:         email,
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

func (f *fixture) send(t *testing.T, chatID, senderID uint, content string) *Message {
	t.Helper()
	m, err := f.service.Create(context.Background(), senderID, CreateInput{
		ChatID:  chatID,
		Content: content,
	})
	if err != nil {
		t.Fatalf("sending %q: %v", content, err)
	}
	return m
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	m := f.send(t, f.group.ID, f.alice.ID, "hello")

	if m.SendStatus != StatusSent {
		t.Fatalf("sendStatus = %s, want %s", m.SendStatus, StatusSent)
	}
	if m.SenderVisibility != VisibilityVisible || m.ReceiverVisibility != VisibilityVisible {
		t.Fatal("new messages must be visible on both sides")
	}
	if len(f.notifier.messages) != 1 || f.notifier.messages[0] != m.ID {
		t.Fatalf("notifier saw %v, want [%d]", f.notifier.messages, m.ID)
	}
}

func TestCreateRequiresParticipant(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), f.carol.ID, CreateInput{
		ChatID:  f.direct.ID,
		Content: "hi",
	})
	if !infrastructure.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCreateBlockedOneToOneFails(t *testing.T) {
	f := newFixture(t)
	f.blocks.blocked = true

	_, err := f.service.Create(context.Background(), f.bob.ID, CreateInput{
		ChatID:  f.direct.ID,
		Content: "hi",
	})
	if !infrastructure.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// Group chats are not gated on the block oracle.
	f.send(t, f.group.ID, f.bob.ID, "hello group")
}

func TestMarkDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.group.ID, f.alice.ID, "hello")

	if err := f.service.MarkDelivered(ctx, m.ID, f.alice.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("sender marking delivered: expected unauthorized, got %v", err)
	}
	if err := f.service.MarkDelivered(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if err := f.service.MarkDelivered(ctx, m.ID, f.carol.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("second delivery: expected conflict, got %v", err)
	}
}

func TestMarkReadRequiresDelivery(t *testing.T) {
	f := newFixture(t)
	m := f.send(t, f.group.ID, f.alice.ID, "hello")

	if err := f.service.MarkRead(context.Background(), m.ID, f.bob.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("expected conflict before delivery, got %v", err)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.group.ID, f.alice.ID, "hello")
	if err := f.service.MarkDelivered(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	if err := f.service.MarkRead(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if err := f.service.MarkRead(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("second read must be a no-op: %v", err)
	}

	var n int64
	f.db.Model(&MessageRead{}).Where("message_id = ?", m.ID).Count(&n)
	if n != 1 {
		t.Fatalf("read rows = %d, want exactly 1", n)
	}

	if err := f.service.MarkRead(ctx, m.ID, f.alice.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("sender reading own message: expected unauthorized, got %v", err)
	}
}

func TestDeleteForMeOnlyAffectsOwnSide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.direct.ID, f.alice.ID, "hello")

	if err := f.service.DeleteForMe(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("delete for me: %v", err)
	}

	bobView, _, err := f.service.ListVisible(ctx, f.direct.ID, f.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("bob's view: %v", err)
	}
	if len(bobView) != 0 {
		t.Fatalf("bob still sees %d messages, want 0", len(bobView))
	}

	aliceView, _, err := f.service.ListVisible(ctx, f.direct.ID, f.alice.ID, 0, 10)
	if err != nil {
		t.Fatalf("alice's view: %v", err)
	}
	if len(aliceView) != 1 {
		t.Fatalf("alice sees %d messages, want 1", len(aliceView))
	}
}

func TestDeleteForEveryone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.direct.ID, f.alice.ID, "hello")

	if err := f.service.DeleteForEveryone(ctx, m.ID, f.bob.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("non-sender: expected unauthorized, got %v", err)
	}
	if err := f.service.DeleteForEveryone(ctx, m.ID, f.alice.ID); err != nil {
		t.Fatalf("delete for everyone: %v", err)
	}
	if _, err := f.service.repo.ByID(ctx, m.ID); !infrastructure.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeleteForEveryoneBlockedByOwnDeleteForMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.direct.ID, f.alice.ID, "hello")

	if err := f.service.DeleteForMe(ctx, m.ID, f.alice.ID); err != nil {
		t.Fatalf("delete for me: %v", err)
	}
	if err := f.service.DeleteForEveryone(ctx, m.ID, f.alice.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestListVisibleOrdersAscending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.send(t, f.group.ID, f.alice.ID, "first")
	f.send(t, f.group.ID, f.bob.ID, "second")
	f.send(t, f.group.ID, f.carol.ID, "third")

	msgs, total, err := f.service.ListVisible(ctx, f.group.ID, f.alice.ID, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(msgs) != 3 {
		t.Fatalf("got %d messages (total %d), want 3", len(msgs), total)
	}
	if msgs[0].Content != "first" || msgs[2].Content != "third" {
		t.Fatalf("wrong order: %q, %q, %q", msgs[0].Content, msgs[1].Content, msgs[2].Content)
	}
}

func TestUnreadCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.group.ID, f.alice.ID, "hello")
	if err := f.service.MarkDelivered(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if err := f.service.MarkRead(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	// Three participants, minus the sender, minus bob who has read.
	n, err := f.service.UnreadCount(ctx, m.ID, f.alice.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if n != 1 {
		t.Fatalf("unread = %d, want 1", n)
	}

	if _, err := f.service.UnreadCount(ctx, m.ID, f.bob.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("non-sender: expected unauthorized, got %v", err)
	}
}

func TestUnreadCountGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.group.ID, f.alice.ID, "hello")

	// Not delivered yet.
	if _, err := f.service.UnreadCount(ctx, m.ID, f.alice.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("undelivered: expected conflict, got %v", err)
	}

	if err := f.service.MarkDelivered(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if _, err := f.service.UnreadCount(ctx, m.ID, f.alice.ID); err != nil {
		t.Fatalf("unread count after delivery: %v", err)
	}

	// The sender hid the message on their own side.
	if err := f.service.DeleteForMe(ctx, m.ID, f.alice.ID); err != nil {
		t.Fatalf("delete for me: %v", err)
	}
	if _, err := f.service.UnreadCount(ctx, m.ID, f.alice.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("hidden for sender: expected conflict, got %v", err)
	}
}

func TestReadersOf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.group.ID, f.alice.ID, "hello")
	if err := f.service.MarkDelivered(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if err := f.service.MarkRead(ctx, m.ID, f.bob.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	reads, err := f.service.ReadersOf(ctx, m.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("readers: %v", err)
	}
	if len(reads) != 1 || reads[0].UserID != f.bob.ID {
		t.Fatalf("readers = %+v, want bob only", reads)
	}

	if _, err := f.service.ReadersOf(ctx, m.ID, f.alice.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("sender: expected unauthorized, got %v", err)
	}
}

func TestDeleteAllForMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.send(t, f.direct.ID, f.alice.ID, "one")
	f.send(t, f.direct.ID, f.bob.ID, "two")

	if err := f.service.DeleteAllForMe(ctx, f.direct.ID, f.alice.ID); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	aliceView, _, err := f.service.ListVisible(ctx, f.direct.ID, f.alice.ID, 0, 10)
	if err != nil {
		t.Fatalf("alice's view: %v", err)
	}
	if len(aliceView) != 0 {
		t.Fatalf("alice still sees %d messages", len(aliceView))
	}

	// The other side's view is intact.
	bobView, _, err := f.service.ListVisible(ctx, f.direct.ID, f.bob.ID, 0, 10)
	if err != nil {
		t.Fatalf("bob's view: %v", err)
	}
	if len(bobView) != 2 {
		t.Fatalf("bob sees %d messages, want 2", len(bobView))
	}
}

func TestMarkAllReadInChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.send(t, f.group.ID, f.alice.ID, "one")
	m2 := f.send(t, f.group.ID, f.alice.ID, "two")
	for _, m := range []*Message{m1, m2} {
		if err := f.service.MarkDelivered(ctx, m.ID, f.bob.ID); err != nil {
			t.Fatalf("mark delivered: %v", err)
		}
	}

	if err := f.service.MarkAllReadInChat(ctx, f.group.ID, f.bob.ID); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	var n int64
	f.db.Model(&MessageRead{}).Where("user_id = ?", f.bob.ID).Count(&n)
	if n != 2 {
		t.Fatalf("read rows = %d, want 2", n)
	}
}

func TestAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.service.Create(ctx, f.alice.ID, CreateInput{
		ChatID: f.group.ID,
		Type:   TypeImage,
		Attachments: []AttachmentInput{
			{FileName: "cat.png", ContentType: "image/png", Size: 1024},
		},
	})
	if err != nil {
		t.Fatalf("create with attachment: %v", err)
	}

	atts, err := f.service.ListAttachments(ctx, m.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(atts) != 1 || atts[0].FileName != "cat.png" {
		t.Fatalf("attachments = %+v", atts)
	}
	if atts[0].StorageKey == "" {
		t.Fatal("storage key not assigned")
	}

	a, err := f.service.GetAttachment(ctx, atts[0].ID, f.carol.ID)
	if err != nil {
		t.Fatalf("get attachment: %v", err)
	}
	if a.ContentType != "image/png" {
		t.Fatalf("attachment = %+v", a)
	}

	if _, err := f.service.AddAttachment(ctx, m.ID, f.bob.ID, AttachmentInput{FileName: "dog.png"}); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("non-sender attach: expected unauthorized, got %v", err)
	}
	if err := f.service.RemoveAttachment(ctx, atts[0].ID, f.bob.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("non-sender remove: expected unauthorized, got %v", err)
	}
	if err := f.service.RemoveAttachment(ctx, atts[0].ID, f.alice.ID); err != nil {
		t.Fatalf("remove attachment: %v", err)
	}
}

func TestPurgeUserDataDetachesSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, f.group.ID, f.alice.ID, "hello")

	if err := f.service.PurgeUserData(ctx, f.alice.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	got, err := f.service.repo.ByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.SenderID != nil {
		t.Fatalf("senderID = %v, want nil", *got.SenderID)
	}
	if got.Content != "hello" {
		t.Fatal("chat history must survive account deletion")
	}
}
