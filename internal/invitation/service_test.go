package invitation

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

type recordingNotifier struct {
	invites []uint
}

func (n *recordingNotifier) GroupInviteCreated(_ context.Context, _, receiverID, _ uint) error {
	n.invites = append(n.invites, receiverID)
	return nil
}

type fixture struct {
	service  *Service
	chats    *chat.Service
	roster   *chat.Roster
	notifier *recordingNotifier
	alice    *user.User
	bob      *user.User
	carol    *user.User
	group    *chat.Chat
	direct   *chat.Chat
}

type allFriends struct{}

func (allFriends) AreFriends(context.Context, uint, uint) (bool, error) { return true, nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&user.User{}, &chat.Chat{}, &chat.Participant{}, &Invitation{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	users := user.NewRepository(db)
	chatRepo := chat.NewRepository(db)
	notifier := &recordingNotifier{}
	f := &fixture{
		service:  NewService(NewRepository(db), chatRepo, users, notifier),
		chats:    chat.NewService(chatRepo, users),
		roster:   chat.NewRoster(chatRepo, users, allFriends{}),
		notifier: notifier,
	}
	ctx := context.Background()
	f.alice = seedUser(t, users, "alice@example.com")
	f.bob = seedUser(t, users, "bob@example.com")
	f.carol = seedUser(t, users, "carol@example.com")

	f.group, err = f.chats.Create(ctx, f.alice.ID, chat.CreateInput{
		Type:           chat.TypeGroup,
		Name:           "book club",
		ParticipantIDs: []uint{f.alice.ID, f.bob.ID},
	})
	if err != nil {
		t.Fatalf("creating group: %v", err)
	}
	f.direct, err = f.chats.Create(ctx, f.alice.ID, chat.CreateInput{
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

func TestSendAndAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.service.Send(ctx, f.group.ID, f.alice.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if inv.Status != StatusPending {
		t.Fatalf("status = %s, want %s", inv.Status, StatusPending)
	}
	if len(f.notifier.invites) != 1 || f.notifier.invites[0] != f.carol.ID {
		t.Fatalf("notifier saw %v, want [%d]", f.notifier.invites, f.carol.ID)
	}

	if err := f.service.Accept(ctx, inv.ID, f.carol.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	got, err := f.service.repo.ByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Fatalf("status = %s, want %s", got.Status, StatusAccepted)
	}
	if got.RespondedAt == nil {
		t.Fatal("respondedAt not stamped")
	}

	ok, err := f.roster.IsParticipant(ctx, f.group.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("is participant: %v", err)
	}
	if !ok {
		t.Fatal("carol should have joined the chat")
	}
	admin, _ := f.roster.IsAdmin(ctx, f.group.ID, f.carol.ID)
	if admin {
		t.Fatal("invited users join as MEMBER")
	}
}

func TestAcceptAfterJoiningElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.service.Send(ctx, f.group.ID, f.alice.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// Carol joins through the roster while the invitation is open.
	if err := f.roster.Add(ctx, f.group.ID, f.alice.ID, f.carol.ID); err != nil {
		t.Fatalf("roster add: %v", err)
	}

	if err := f.service.Accept(ctx, inv.ID, f.carol.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	got, err := f.service.repo.ByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Fatalf("status = %s, want %s", got.Status, StatusAccepted)
	}
	if got.RespondedAt == nil {
		t.Fatal("respondedAt not stamped")
	}
}

func TestSendRequiresGroupAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Bob founded the group, so he is an admin and may invite.
	if _, err := f.service.Send(ctx, f.group.ID, f.bob.ID, f.carol.ID); err != nil {
		t.Fatalf("send as founder: %v", err)
	}

	// Carol is not in the chat at all.
	if _, err := f.service.Send(ctx, f.group.ID, f.carol.ID, f.carol.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSendToOneToOneConflicts(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.Send(context.Background(), f.direct.ID, f.alice.ID, f.carol.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSendToExistingParticipantConflicts(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.Send(context.Background(), f.group.ID, f.alice.ID, f.bob.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDuplicatePendingInvitationConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.Send(ctx, f.group.ID, f.alice.ID, f.carol.ID); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := f.service.Send(ctx, f.group.ID, f.alice.ID, f.carol.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.service.Send(ctx, f.group.ID, f.alice.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := f.service.Reject(ctx, inv.ID, f.carol.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	ok, err := f.roster.IsParticipant(ctx, f.group.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("is participant: %v", err)
	}
	if ok {
		t.Fatal("reject must not touch the roster")
	}
}

func TestResponsesAreTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.service.Send(ctx, f.group.ID, f.alice.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := f.service.Reject(ctx, inv.ID, f.carol.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := f.service.Accept(ctx, inv.ID, f.carol.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("accept after reject: expected conflict, got %v", err)
	}
	if err := f.service.Reject(ctx, inv.ID, f.carol.ID); !infrastructure.IsConflict(err) {
		t.Fatalf("reject twice: expected conflict, got %v", err)
	}
}

func TestOnlyReceiverMayRespond(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.service.Send(ctx, f.group.ID, f.alice.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := f.service.Accept(ctx, inv.ID, f.bob.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := f.service.Reject(ctx, inv.ID, f.alice.ID); !infrastructure.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.service.Send(ctx, f.group.ID, f.alice.ID, f.carol.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	pending, err := f.service.ListPending(ctx, f.carol.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != inv.ID {
		t.Fatalf("pending = %+v, want the one invitation", pending)
	}

	if err := f.service.Accept(ctx, inv.ID, f.carol.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	pending, err = f.service.ListPending(ctx, f.carol.ID)
	if err != nil {
		t.Fatalf("list after accept: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %+v, want none", pending)
	}
}
