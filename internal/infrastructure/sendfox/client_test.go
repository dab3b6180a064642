package sendfox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"Herald/internal/config"
	"Herald/internal/domain"
)

func TestListsMapsSubscriberCounts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lists" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("missing bearer token")
		}
		_, _ = w.Write([]byte(`{"data":[{"id":101,"name":"Weekly readers","subscribed_contacts_count":420},{"id":202,"name":"Monthly","subscribed_contacts_count":77}]}`))
	}))
	defer server.Close()

	client := NewClient(config.SendFoxConfig{BaseURL: server.URL + "/", APIKey: "token"})
	lists, err := client.Lists(context.Background())
	if err != nil {
		t.Fatalf("Lists error: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
	if lists[0].ID != "101" || lists[0].Name != "Weekly readers" || lists[0].Subscribers != 420 {
		t.Fatalf("unexpected first list %+v", lists[0])
	}
}

func TestListsErrors(t *testing.T) {
	t.Parallel()

	unconfigured := NewClient(config.SendFoxConfig{BaseURL: "http://unused"})
	if _, err := unconfigured.Lists(context.Background()); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(config.SendFoxConfig{BaseURL: server.URL, APIKey: "bad"})
	if _, err := client.Lists(context.Background()); err == nil {
		t.Fatalf("expected error for 401")
	}
}
