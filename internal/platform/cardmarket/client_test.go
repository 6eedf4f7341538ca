package cardmarket

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkravets/binderbot/internal/domain"
)

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second), srv
}

func TestClient_attachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	client.SetTokenSource(staticToken("tok-42"))

	if _, err := client.Notifications(context.Background(), 10); err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if gotAuth != "Bearer tok-42" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-42")
	}
}

func TestClient_noTokenNoHeader(t *testing.T) {
	t.Parallel()

	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))

	if _, err := client.Listings(context.Background(), domain.ListingFilter{}); err != nil {
		t.Fatalf("Listings: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}

func TestClient_authRejectFiresHookOnAuthedRequest(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	client.SetTokenSource(staticToken("stale"))

	var fired atomic.Int32
	client.SetAuthRejectHook(func() { fired.Add(1) })

	_, err := client.GetOffer(context.Background(), "off-1")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if fired.Load() != 1 {
		t.Errorf("auth reject hook fired %d times, want 1", fired.Load())
	}
}

func TestClient_loginFailureDoesNotFireHook(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid credentials"}`))
	}))

	var fired atomic.Int32
	client.SetAuthRejectHook(func() { fired.Add(1) })

	_, err := client.Login(context.Background(), "a@example.com", "wrong")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if fired.Load() != 0 {
		t.Errorf("auth reject hook fired on unauthenticated login failure")
	}
}

func TestClient_statusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"conflict", http.StatusConflict, domain.ErrConflict},
		{"forbidden", http.StatusForbidden, domain.ErrNotAllowed},
		{"bad request", http.StatusBadRequest, domain.ErrValidation},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}))

			_, err := client.GetListing(context.Background(), "l1")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAcceptOffer_returnsServerRepresentation(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trade-offers/off-1/accept" {
			t.Errorf("path = %q", r.URL.Path)
		}
		// Server resolved the race differently: the offer was already
		// cancelled by the buyer. The client must adopt this verbatim.
		w.Write([]byte(`{"id":"off-1","status":"cancelled"}`))
	}))
	client.SetTokenSource(staticToken("tok"))

	offer, err := client.AcceptOffer(context.Background(), "off-1", "ok")
	if err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}
	if offer.Status != domain.OfferStatusCancelled {
		t.Errorf("status = %q, want server-returned %q", offer.Status, domain.OfferStatusCancelled)
	}
}

func TestUnreadCount(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications/unread-count" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"count":3}`))
	}))
	client.SetTokenSource(staticToken("tok"))

	count, err := client.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestUploadAvatar_multipart(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("avatar")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "me.png" {
			t.Errorf("filename = %q", header.Filename)
		}
		w.Write([]byte(`{"id":"u1","avatar_url":"https://cdn.example/me.png"}`))
	}))
	client.SetTokenSource(staticToken("tok"))

	user, err := client.UploadAvatar(context.Background(), "me.png", bytes.NewReader([]byte("png-bytes")))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if user.AvatarURL == "" {
		t.Error("avatar URL not returned")
	}
}
