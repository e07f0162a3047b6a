package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

func newTestStore(session *fakeSession, backend *stubBackend, opts ...StoreOption) *StoreService {
	opts = append([]StoreOption{WithStoreClock(clock), WithIDGenerator(sequentialIDs())}, opts...)
	return NewStoreService(session, backend, zerolog.Nop(), opts...)
}

func validTask(assignee string) ports.NewTask {
	return ports.NewTask{
		Title:      "Prepare quarterly report",
		Priority:   string(domain.PriorityHigh),
		Status:     string(domain.TaskPending),
		AssignedTo: assignee,
		DueDate:    fixedNow.Add(72 * time.Hour),
	}
}

func strPtr(s string) *string { return &s }

func TestStoreService_AddTask_NotifiesAssignee(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	store := newTestStore(session, &stubBackend{})

	task, err := store.AddTask(context.Background(), validTask("2"))
	if err != nil {
		t.Fatalf("AddTask returned error: %v", err)
	}
	if task.ID == "" || !task.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected generated id and timestamp, got %+v", task)
	}
	if task.AssignedBy != "1" {
		t.Fatalf("expected assignedBy to default to the actor id, got %q", task.AssignedBy)
	}
	if task.CompletedAt != nil {
		t.Fatalf("pending task must not carry completedAt")
	}

	notes := store.Notifications("2")
	if len(notes) != 1 {
		t.Fatalf("expected one notification for assignee, got %d", len(notes))
	}
	n := notes[0]
	if n.Type != domain.NotificationTaskAssigned || n.TaskID != task.ID || n.IsRead {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if n.Title != "New Task Assigned" || !strings.Contains(n.Message, task.Title) {
		t.Fatalf("unexpected notification text: %+v", n)
	}
	if len(store.Notifications("1")) != 0 {
		t.Fatalf("creator should not be notified")
	}
}

func TestStoreService_AddTask_Validation(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})

	in := validTask("2")
	in.Title = ""
	in.Priority = "critical"

	_, err := store.AddTask(context.Background(), in)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", ve.Fields)
	}
	if len(store.Tasks(ports.TaskFilter{})) != 0 || len(store.Notifications("")) != 0 {
		t.Fatalf("invalid task must not change the store")
	}
}

func TestStoreService_AddTask_CompletedStampsCompletedAt(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})

	in := validTask("2")
	in.Status = string(domain.TaskCompleted)
	task, err := store.AddTask(context.Background(), in)
	if err != nil {
		t.Fatalf("AddTask returned error: %v", err)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(fixedNow) {
		t.Fatalf("expected completedAt to be now, got %v", task.CompletedAt)
	}
}

func TestStoreService_AddTask_MirrorsToBackend(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	backend := &stubBackend{}
	store := newTestStore(session, backend, WithTaskMirror(backend))

	if _, err := store.AddTask(context.Background(), validTask("2")); err != nil {
		t.Fatalf("AddTask returned error: %v", err)
	}
	if len(backend.tasks) != 1 {
		t.Fatalf("expected task to be mirrored, got %d", len(backend.tasks))
	}
	if got := backend.tasks[0].AssignedTo; got == nil || *got != 2 {
		t.Fatalf("expected numeric assignee 2, got %v", got)
	}
}

func TestStoreService_UpdateTask_CompletionLifecycle(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	store := newTestStore(session, &stubBackend{})
	task, _ := store.AddTask(context.Background(), validTask("2"))

	done, err := store.UpdateTask(task.ID, ports.TaskPatch{Status: strPtr(string(domain.TaskCompleted))})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatalf("expected completedAt once completed")
	}

	completed := 0
	for _, n := range store.Notifications("1") {
		if n.Type == domain.NotificationTaskCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("expected one completion notification for the assigner, got %d", completed)
	}

	reopened, err := store.UpdateTask(task.ID, ports.TaskPatch{Status: strPtr(string(domain.TaskInProgress))})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Fatalf("expected completedAt to be cleared, got %v", reopened.CompletedAt)
	}
}

func TestStoreService_UpdateTask_CompletionWithoutAssigner(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})
	task, err := store.AddTask(context.Background(), validTask("2"))
	if err != nil {
		t.Fatalf("AddTask returned error: %v", err)
	}
	if task.AssignedBy != "" {
		t.Fatalf("anonymous task must have no assigner, got %q", task.AssignedBy)
	}
	before := len(store.Notifications(""))

	if _, err := store.UpdateTask(task.ID, ports.TaskPatch{Status: strPtr(string(domain.TaskCompleted))}); err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}

	all := store.Notifications("")
	if len(all) != before+1 {
		t.Fatalf("expected exactly one completion notification, got %d new", len(all)-before)
	}
	if all[0].Type != domain.NotificationTaskCompleted || all[0].UserID != "2" {
		t.Fatalf("expected completion addressed to the assignee, got %+v", all[0])
	}
}

func TestStoreService_UpdateTask_CompletedAtBeforeCreatedAt(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})
	task, _ := store.AddTask(context.Background(), validTask("2"))

	early := fixedNow.Add(-time.Hour)
	_, err := store.UpdateTask(task.ID, ports.TaskPatch{
		Status:      strPtr(string(domain.TaskCompleted)),
		CompletedAt: &early,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got := store.Tasks(ports.TaskFilter{})[0]
	if got.Status != domain.TaskPending || got.CompletedAt != nil {
		t.Fatalf("rejected update must leave the task untouched: %+v", got)
	}
}

func TestStoreService_UpdateTask_Reassign(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})
	task, _ := store.AddTask(context.Background(), validTask("2"))

	if _, err := store.UpdateTask(task.ID, ports.TaskPatch{AssignedTo: strPtr("3")}); err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	notes := store.Notifications("3")
	if len(notes) != 1 || notes[0].Type != domain.NotificationTaskAssigned {
		t.Fatalf("expected new assignee to be notified, got %+v", notes)
	}
}

func TestStoreService_UpdateTask_UnknownAndInvalid(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})

	if _, err := store.UpdateTask("missing", ports.TaskPatch{}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	task, _ := store.AddTask(context.Background(), validTask("2"))
	invalid := []ports.TaskPatch{
		{Status: strPtr("done")},
		{Priority: strPtr("whenever")},
		{Title: strPtr("")},
		{AssignedTo: strPtr("")},
		{DueDate: &time.Time{}},
	}
	for _, p := range invalid {
		if _, err := store.UpdateTask(task.ID, p); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("UpdateTask(%+v): expected validation error, got %v", p, err)
		}
	}
}

func TestStoreService_DeleteTask(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})
	task, _ := store.AddTask(context.Background(), validTask("2"))

	if err := store.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if len(store.Tasks(ports.TaskFilter{})) != 0 {
		t.Fatalf("expected task to be removed")
	}
	if err := store.DeleteTask(task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestStoreService_Tasks_Filter(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})
	a := validTask("2")
	a.Title = "Fix login bug"
	b := validTask("3")
	b.Title = "Write docs"
	b.Priority = string(domain.PriorityLow)
	_, _ = store.AddTask(context.Background(), a)
	_, _ = store.AddTask(context.Background(), b)

	if got := store.Tasks(ports.TaskFilter{Search: "LOGIN"}); len(got) != 1 || got[0].Title != a.Title {
		t.Fatalf("search mismatch: %+v", got)
	}
	if got := store.Tasks(ports.TaskFilter{Priority: "low"}); len(got) != 1 || got[0].Title != b.Title {
		t.Fatalf("priority filter mismatch: %+v", got)
	}
	if got := store.Tasks(ports.TaskFilter{VisibleTo: memberIdentity()}); len(got) != 1 || got[0].AssignedTo != "2" {
		t.Fatalf("member should only see own tasks: %+v", got)
	}
	if got := store.Tasks(ports.TaskFilter{VisibleTo: adminIdentity()}); len(got) != 2 {
		t.Fatalf("admin should see every task, got %d", len(got))
	}
}

func TestStoreService_LoadUsers_NonAdminIsEmpty(t *testing.T) {
	session := newFakeSession()
	session.set(memberIdentity(), "tok")
	backend := &stubBackend{users: []ports.BackendUser{{ID: 1, Email: "admin@co.com", IsAdmin: true}}}
	store := newTestStore(session, backend)

	if err := store.LoadUsers(context.Background()); err != nil {
		t.Fatalf("LoadUsers returned error: %v", err)
	}
	if len(store.Users()) != 0 {
		t.Fatalf("expected no users for non-admin")
	}
	if backend.listCalls != 0 {
		t.Fatalf("expected no network call, got %d", backend.listCalls)
	}
}

func TestStoreService_LoadUsers_Admin(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	backend := &stubBackend{users: []ports.BackendUser{
		{ID: 1, Email: "admin@co.com", IsAdmin: true},
		{ID: 2, Email: "bob@co.com"},
	}}
	store := newTestStore(session, backend)

	if err := store.LoadUsers(context.Background()); err != nil {
		t.Fatalf("LoadUsers returned error: %v", err)
	}
	users := store.Users()
	if len(users) != 2 {
		t.Fatalf("expected two users, got %d", len(users))
	}
	if users[1].Name != "bob" || users[1].Role != domain.RoleUser || users[1].CanAssignTasks {
		t.Fatalf("unexpected mapping: %+v", users[1])
	}
}

func TestStoreService_LoadUsers_StaleResponseDiscarded(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	backend := &stubBackend{users: []ports.BackendUser{{ID: 1, Email: "admin@co.com", IsAdmin: true}}}
	backend.onList = func() { session.set(nil, "") }
	store := newTestStore(session, backend)

	if err := store.LoadUsers(context.Background()); err != nil {
		t.Fatalf("LoadUsers returned error: %v", err)
	}
	if len(store.Users()) != 0 {
		t.Fatalf("response for a previous session must be discarded")
	}
}

func TestStoreService_LoadUsers_OlderOverlappingLoadDiscarded(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	backend := &stubBackend{users: []ports.BackendUser{{ID: 1, Email: "admin@co.com", IsAdmin: true}}}
	store := newTestStore(session, backend)

	// While the first load is in flight, a second one sees a newer list
	// and commits first.
	overlapped := false
	backend.onList = func() {
		if overlapped {
			return
		}
		overlapped = true
		backend.mu.Lock()
		backend.users = append(backend.users, ports.BackendUser{ID: 2, Email: "bob@co.com"})
		backend.mu.Unlock()
		if err := store.LoadUsers(context.Background()); err != nil {
			t.Fatalf("overlapping LoadUsers returned error: %v", err)
		}
	}

	if err := store.LoadUsers(context.Background()); err != nil {
		t.Fatalf("LoadUsers returned error: %v", err)
	}
	if got := store.Users(); len(got) != 2 {
		t.Fatalf("older response overwrote the newer list: %+v", got)
	}
}

func TestStoreService_Bind_FollowsRole(t *testing.T) {
	session := newFakeSession()
	backend := &stubBackend{users: []ports.BackendUser{{ID: 1, Email: "admin@co.com", IsAdmin: true}}}
	store := newTestStore(session, backend)
	store.Bind(context.Background())

	session.set(adminIdentity(), "tok")
	if len(store.Users()) != 1 {
		t.Fatalf("expected users after admin sign-in")
	}

	session.set(nil, "")
	if len(store.Users()) != 0 {
		t.Fatalf("expected users cleared after logout")
	}

	session.set(memberIdentity(), "tok2")
	if backend.listCalls != 1 {
		t.Fatalf("member sign-in must not load users, calls=%d", backend.listCalls)
	}
}

func TestStoreService_AddUser_EmptyPasswordSkipsNetwork(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	backend := &stubBackend{}
	store := newTestStore(session, backend)

	_, err := store.AddUser(context.Background(), ports.NewUser{
		Name: "carol", Email: "carol@co.com", Role: string(domain.RoleUser),
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if backend.createCalls != 0 {
		t.Fatalf("expected no network call")
	}
	if len(store.Users()) != 0 {
		t.Fatalf("expected no user cached")
	}
}

func TestStoreService_AddUser_RequiresAdmin(t *testing.T) {
	form := ports.NewUser{Name: "carol", Email: "carol@co.com", Password: "pw", Role: "user"}

	anon := newTestStore(newFakeSession(), &stubBackend{})
	if _, err := anon.AddUser(context.Background(), form); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	session := newFakeSession()
	session.set(memberIdentity(), "tok")
	backend := &stubBackend{}
	member := newTestStore(session, backend)
	if _, err := member.AddUser(context.Background(), form); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if backend.createCalls != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestStoreService_AddUser_Success(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	backend := &stubBackend{users: []ports.BackendUser{{ID: 1, Email: "admin@co.com", IsAdmin: true}}}
	store := newTestStore(session, backend)

	user, err := store.AddUser(context.Background(), ports.NewUser{
		Name: "Carol", Email: "carol@co.com", Password: "pw", Role: "admin",
	})
	if err != nil {
		t.Fatalf("AddUser returned error: %v", err)
	}
	if user.Name != "carol" || user.Role != domain.RoleAdmin || !user.CanAssignTasks {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(backend.created) != 1 || !backend.created[0].IsAdmin {
		t.Fatalf("expected admin create request, got %+v", backend.created)
	}
	if len(store.Users()) != 2 {
		t.Fatalf("expected reconciled list of two users, got %d", len(store.Users()))
	}
}

func TestStoreService_AddUser_Rejected(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	backend := &stubBackend{createErr: &domain.RemoteRejectedError{StatusCode: 400, Message: "Email already registered"}}
	store := newTestStore(session, backend)

	_, err := store.AddUser(context.Background(), ports.NewUser{
		Name: "x", Email: "admin@co.com", Password: "pw", Role: "user",
	})
	var rr *domain.RemoteRejectedError
	if !errors.As(err, &rr) || rr.DisplayMessage() != "Email already registered" {
		t.Fatalf("expected backend message, got %v", err)
	}
	if len(store.Users()) != 0 {
		t.Fatalf("nothing should be cached on failure")
	}
}

func TestStoreService_UpdateAndDeleteUser(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	backend := &stubBackend{users: []ports.BackendUser{{ID: 2, Email: "bob@co.com"}}}
	store := newTestStore(session, backend)
	_ = store.LoadUsers(context.Background())

	admin := string(domain.RoleAdmin)
	u, err := store.UpdateUser("2", ports.UserPatch{Role: &admin})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if !u.CanAssignTasks {
		t.Fatalf("canAssignTasks must follow role")
	}
	for _, p := range []ports.UserPatch{
		{Role: strPtr("root")},
		{Email: strPtr("@")},
		{Name: strPtr("")},
	} {
		if _, err := store.UpdateUser("2", p); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("UpdateUser(%+v): expected validation error, got %v", p, err)
		}
	}
	if err := store.DeleteUser("2"); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if err := store.DeleteUser("2"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStoreService_MarkNotificationAsRead(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})
	n := store.AddNotification(ports.NewNotification{
		Type: domain.NotificationReminder, Title: "t", Message: "m", UserID: "2",
	})

	for i := 0; i < 2; i++ {
		if err := store.MarkNotificationAsRead(n.ID); err != nil {
			t.Fatalf("MarkNotificationAsRead returned error: %v", err)
		}
	}
	if !store.Notifications("2")[0].IsRead {
		t.Fatalf("expected notification to be read")
	}
	if err := store.MarkNotificationAsRead("missing"); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestStoreService_Notifications_NewestFirst(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{})
	first := store.AddNotification(ports.NewNotification{Type: domain.NotificationReminder, UserID: "2"})
	second := store.AddNotification(ports.NewNotification{Type: domain.NotificationReminder, UserID: "2"})

	got := store.Notifications("")
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestStoreService_SweepReminders(t *testing.T) {
	store := newTestStore(newFakeSession(), &stubBackend{}, WithDeadlineWindow(24*time.Hour))

	remind := fixedNow.Add(-time.Minute)
	soon := validTask("2")
	soon.Title = "Due soon"
	soon.DueDate = fixedNow.Add(2 * time.Hour)
	soon.ReminderSet = &remind
	_, _ = store.AddTask(context.Background(), soon)

	later := validTask("3")
	later.DueDate = fixedNow.Add(7 * 24 * time.Hour)
	_, _ = store.AddTask(context.Background(), later)

	done := validTask("4")
	done.Status = string(domain.TaskCompleted)
	done.DueDate = fixedNow.Add(time.Hour)
	_, _ = store.AddTask(context.Background(), done)

	emitted := store.SweepReminders(fixedNow)
	if len(emitted) != 2 {
		t.Fatalf("expected reminder and deadline warning, got %+v", emitted)
	}
	kinds := map[domain.NotificationType]bool{}
	for _, n := range emitted {
		if n.UserID != "2" {
			t.Fatalf("unexpected recipient %q", n.UserID)
		}
		kinds[n.Type] = true
	}
	if !kinds[domain.NotificationReminder] || !kinds[domain.NotificationDeadlineApproaching] {
		t.Fatalf("unexpected kinds: %v", kinds)
	}

	if again := store.SweepReminders(fixedNow.Add(time.Minute)); len(again) != 0 {
		t.Fatalf("expected no repeats, got %+v", again)
	}
}

func TestStoreService_Stats(t *testing.T) {
	session := newFakeSession()
	session.set(adminIdentity(), "tok")
	store := newTestStore(session, &stubBackend{users: []ports.BackendUser{{ID: 1, Email: "admin@co.com", IsAdmin: true}}})
	_ = store.LoadUsers(context.Background())

	_, _ = store.AddTask(context.Background(), validTask("1"))
	done := validTask("2")
	done.Status = string(domain.TaskCompleted)
	_, _ = store.AddTask(context.Background(), done)

	st := store.Stats(adminIdentity())
	if st.All.Total != 2 || st.All.Completed != 1 || st.All.Pending != 1 {
		t.Fatalf("unexpected totals: %+v", st.All)
	}
	if st.Mine.Total != 1 || st.Unread != 1 || st.ActiveUsers != 1 {
		t.Fatalf("unexpected viewer stats: %+v", st)
	}
}

type stubDirectory struct{ clients []domain.Client }

func (d stubDirectory) ListClients(context.Context) ([]domain.Client, error) {
	return append([]domain.Client(nil), d.clients...), nil
}

func TestStoreService_Clients(t *testing.T) {
	dir := stubDirectory{clients: []domain.Client{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}}}
	store := newTestStore(newFakeSession(), &stubBackend{}, WithClientDirectory(dir))

	if err := store.LoadClients(context.Background()); err != nil {
		t.Fatalf("LoadClients returned error: %v", err)
	}
	if len(store.Clients()) != 2 {
		t.Fatalf("expected two clients")
	}
	if _, err := store.SelectClient("nope"); !errors.Is(err, domain.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	c, err := store.SelectClient("c2")
	if err != nil || c.Name != "Globex" {
		t.Fatalf("unexpected selection: %+v, %v", c, err)
	}
	if sel := store.SelectedClient(); sel == nil || sel.ID != "c2" {
		t.Fatalf("expected c2 selected, got %+v", sel)
	}
	if _, err := store.SelectClient(""); err != nil || store.SelectedClient() != nil {
		t.Fatalf("expected selection cleared")
	}
}
