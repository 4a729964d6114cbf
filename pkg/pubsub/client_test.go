package pubsub

import (
	"context"
	"testing"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		project, kind, name, want string
	}{
		{"hn-prod", "topics", "hn-domain-events", "projects/hn-prod/topics/hn-domain-events"},
		{"hn-prod", "subscriptions", " hn-analytics-sub ", "projects/hn-prod/subscriptions/hn-analytics-sub"},
		{"hn-prod", "topics", "projects/other/topics/t1", "projects/other/topics/t1"},
		{"", "topics", "t1", ""},
		{"hn-prod", "topics", "   ", ""},
	}
	for _, tc := range cases {
		if got := resourceName(tc.project, tc.kind, tc.name); got != tc.want {
			t.Fatalf("resourceName(%q, %q, %q) = %q, want %q", tc.project, tc.kind, tc.name, got, tc.want)
		}
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("t") != nil {
		t.Fatal("expected nil publisher")
	}
	if c.Subscription("s") != nil {
		t.Fatal("expected nil subscriber")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
