package habitica

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/CrestNiraj12/groupchat/domain"
)

func TestCurrentUser_MapsProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/user" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		writeEnvelope(t, w, http.StatusOK, json.RawMessage(`{
			"id":"user-1",
			"auth":{"local":{"username":"me_here"}},
			"profile":{"name":"Me Here"},
			"contributor":{"level":3,"admin":false},
			"permissions":{"moderator":true},
			"flags":{"communityGuidelinesAccepted":true}
		}`))
	})
	u, err := NewUserService(c).CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	want := domain.User{ID: "user-1", Username: "me_here", DisplayName: "Me Here", Moderator: true, GuidelinesAccepted: true}
	if u != want {
		t.Fatalf("got %+v want %+v", u, want)
	}
}

func TestAcceptGuidelines_PutsFlag(t *testing.T) {
	bodies := make(chan map[string]bool, 1)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v3/user" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		bodies <- body
		writeEnvelope(t, w, http.StatusOK, map[string]any{})
	})
	svc := NewUserService(c)
	if svc.IsGuidelinesAccepted(domain.User{}) {
		t.Fatalf("fresh user should not have accepted")
	}
	if err := svc.AcceptGuidelines(context.Background(), domain.User{ID: "user-1"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if body := <-bodies; !body["flags.communityGuidelinesAccepted"] {
		t.Fatalf("expected guidelines flag in body, got %v", body)
	}
}
