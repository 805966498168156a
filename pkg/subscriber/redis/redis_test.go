package redis

import (
	"context"
	"os"
	"testing"

	"github.com/igolaizola/emacross/pkg/subscriber/subscribertest"
)

// Set EMACROSS_TEST_REDIS (e.g. redis://localhost:6379/15) to run against a
// real server. The subscribers hash is deleted first.
func TestStore(t *testing.T) {
	url := os.Getenv("EMACROSS_TEST_REDIS")
	if url == "" {
		t.Skip("EMACROSS_TEST_REDIS not set")
	}
	s, err := New(url)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.client.Del(context.Background(), hashKey).Err(); err != nil {
		t.Fatal(err)
	}
	subscribertest.Run(t, s)
}
