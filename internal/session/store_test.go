package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mkravets/binderbot/internal/domain"
)

type fakeAuthAPI struct {
	session   domain.Session
	loginErr  error
	logoutErr error

	loginCalls  int
	logoutCalls int
}

func (f *fakeAuthAPI) Login(ctx context.Context, email, password string) (domain.Session, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return domain.Session{}, f.loginErr
	}
	return f.session, nil
}

func (f *fakeAuthAPI) SocialExchange(ctx context.Context, providerToken string) (domain.Session, error) {
	if f.loginErr != nil {
		return domain.Session{}, f.loginErr
	}
	return f.session, nil
}

func (f *fakeAuthAPI) Logout(ctx context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession() domain.Session {
	return domain.Session{
		Token: "tok-1",
		User:  &domain.UserSummary{ID: "u1", Username: "alice", Email: "a@example.com"},
	}
}

func newTestStore(t *testing.T, api *fakeAuthAPI) (*Store, *FileVault) {
	t.Helper()
	vault := NewFileVault(filepath.Join(t.TempDir(), "session.json"), "")
	return NewStore(api, vault, discardLogger()), vault
}

func TestLoginThenLogout_noStaleCredential(t *testing.T) {
	t.Parallel()

	api := &fakeAuthAPI{session: testSession()}
	store, vault := newTestStore(t, api)

	user, err := store.Login(context.Background(), "a@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user.ID = %q, want u1", user.ID)
	}
	if tok, ok := store.Token(); !ok || tok != "tok-1" {
		t.Errorf("Token() = %q, %v", tok, ok)
	}

	store.Logout(context.Background())

	if _, ok := store.Token(); ok {
		t.Error("credential still accessible after logout")
	}
	if _, ok := store.CurrentUser(); ok {
		t.Error("user still accessible after logout")
	}
	if _, ok, err := vault.Load(); err != nil || ok {
		t.Errorf("vault not cleared: ok=%v err=%v", ok, err)
	}
}

func TestLogin_validationBeforeDispatch(t *testing.T) {
	t.Parallel()

	api := &fakeAuthAPI{session: testSession()}
	store, _ := newTestStore(t, api)

	_, err := store.Login(context.Background(), "", "pw")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if api.loginCalls != 0 {
		t.Errorf("login dispatched to server despite validation failure")
	}
}

func TestLogout_serverFailureStillClearsLocally(t *testing.T) {
	t.Parallel()

	api := &fakeAuthAPI{session: testSession(), logoutErr: errors.New("boom")}
	store, _ := newTestStore(t, api)

	if _, err := store.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	store.Logout(context.Background())

	if store.Authenticated() {
		t.Error("still authenticated after logout with server failure")
	}
}

func TestForceLogout_broadcastsExactlyOnce(t *testing.T) {
	t.Parallel()

	api := &fakeAuthAPI{session: testSession()}
	store, _ := newTestStore(t, api)

	if _, err := store.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var logouts int
	unsub := store.Subscribe(func(ev Event) {
		if ev.Type == EventLogout {
			logouts++
		}
	})
	defer unsub()

	// Simulates a batch of in-flight requests all seeing a 401.
	store.ForceLogout()
	store.ForceLogout()
	store.ForceLogout()

	if logouts != 1 {
		t.Errorf("logout broadcast %d times, want 1", logouts)
	}
}

func TestUpdateUser_mergesAndBroadcasts(t *testing.T) {
	t.Parallel()

	api := &fakeAuthAPI{session: testSession()}
	store, _ := newTestStore(t, api)

	if _, err := store.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	var seen *domain.UserSummary
	unsub := store.Subscribe(func(ev Event) {
		if ev.Type == EventUserUpdated {
			seen = ev.User
		}
	})
	defer unsub()

	bio := "updated bio"
	store.UpdateUser(domain.UserPatch{Bio: &bio})

	user, ok := store.CurrentUser()
	if !ok || user.Bio != "updated bio" {
		t.Errorf("CurrentUser after patch = %+v, %v", user, ok)
	}
	if user.Username != "alice" {
		t.Errorf("unpatched field changed: %q", user.Username)
	}
	if seen == nil || seen.Bio != "updated bio" {
		t.Errorf("subscriber saw %+v", seen)
	}
}

func TestRestore_fromVault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	vault := NewFileVault(path, "pass")
	if err := vault.Save(testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store := NewStore(&fakeAuthAPI{}, NewFileVault(path, "pass"), discardLogger())
	ok, err := store.Restore()
	if err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	if tok, ok := store.Token(); !ok || tok != "tok-1" {
		t.Errorf("Token after restore = %q, %v", tok, ok)
	}
}

func TestFileVault_encryptedRequiresPassphrase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	if err := NewFileVault(path, "pass").Save(testSession()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, _, err := NewFileVault(path, "").Load(); err == nil {
		t.Fatal("loading a sealed vault without a passphrase should fail")
	}
}
