// Package subscribertest checks the behaviour shared by every registry
// backend.
package subscribertest

import (
	"context"
	"testing"
	"time"

	"github.com/igolaizola/emacross/pkg/subscriber"
)

func Run(t *testing.T, reg subscriber.Registry) {
	t.Helper()
	ctx := context.Background()
	since := time.Date(2021, 9, 1, 10, 0, 0, 0, time.UTC)

	subs, err := reg.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 0 {
		t.Fatalf("registry not empty: %v", subs)
	}

	for _, s := range []subscriber.Subscriber{
		{ID: 42, Name: "@igo", Since: since},
		{ID: -1001, Name: "group", Since: since},
		{ID: 7, Name: "@emacross", Since: since},
	} {
		if err := reg.Add(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	// Adding twice replaces the previous entry
	if err := reg.Add(ctx, subscriber.Subscriber{ID: 42, Name: "@igolaizola", Since: since}); err != nil {
		t.Fatal(err)
	}

	subs, err = reg.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantIDs := []int64{-1001, 7, 42}
	if len(subs) != len(wantIDs) {
		t.Fatalf("wrong number of subscribers: want %d, got %d", len(wantIDs), len(subs))
	}
	for i, id := range wantIDs {
		if subs[i].ID != id {
			t.Errorf("subscriber %d: want id %d, got %d", i, id, subs[i].ID)
		}
		if !subs[i].Since.Equal(since) {
			t.Errorf("subscriber %d: want since %s, got %s", i, since, subs[i].Since)
		}
	}
	if subs[2].Name != "@igolaizola" {
		t.Errorf("wrong name: want @igolaizola, got %s", subs[2].Name)
	}

	if err := reg.Remove(ctx, 7); err != nil {
		t.Fatal(err)
	}
	// Removing an unknown id is not an error
	if err := reg.Remove(ctx, 12345); err != nil {
		t.Fatal(err)
	}
	subs, err = reg.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 || subs[0].ID != -1001 || subs[1].ID != 42 {
		t.Errorf("wrong subscribers after remove: %v", subs)
	}
}
