package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/igolaizola/emacross/pkg/metrics"
	"github.com/igolaizola/emacross/pkg/signal"
	"github.com/igolaizola/emacross/pkg/subscriber"
	"github.com/igolaizola/emacross/pkg/subscriber/inmem"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

type mockSender struct {
	lock  sync.Mutex
	sent  map[int64]string
	fail  map[int64]bool
	block map[int64]bool
}

func (s *mockSender) Send(ctx context.Context, chatID int64, text string) error {
	if s.block[chatID] {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.fail[chatID] {
		return errors.New("Forbidden: bot was blocked by the user")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sent[chatID] = text
	return nil
}

func (s *mockSender) ids() []int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	var ids []int64
	for id := range s.sent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func newRegistry(t *testing.T, ids ...int64) subscriber.Registry {
	t.Helper()
	reg := inmem.New()
	for _, id := range ids {
		if err := reg.Add(context.Background(), subscriber.Subscriber{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	return reg
}

func TestMessage(t *testing.T) {
	got := Message(signal.Event{Symbol: "ETHUSDT", Price: 3250.17})
	want := "ETHUSDT EMA Crossed, Last Price 3250.17"
	if got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestDispatch(t *testing.T) {
	sender := &mockSender{sent: map[int64]string{}}
	m := metrics.New()
	d := New(zerolog.Nop(), m, newRegistry(t, 1, 2, 3), sender, time.Second)

	if err := d.Dispatch(context.Background(), signal.Event{Symbol: "BNBUSDT", Price: 412.5}); err != nil {
		t.Fatal(err)
	}
	ids := sender.ids()
	if len(ids) != 3 {
		t.Fatalf("wrong number of sends: want 3, got %d", len(ids))
	}
	for _, id := range ids {
		if sender.sent[id] != "BNBUSDT EMA Crossed, Last Price 412.5" {
			t.Errorf("wrong message for %d: %q", id, sender.sent[id])
		}
	}
	if got := testutil.ToFloat64(m.Sends.WithLabelValues("ok")); got != 3 {
		t.Errorf("wrong ok sends metric: want 3, got %v", got)
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	sender := &mockSender{
		sent:  map[int64]string{},
		fail:  map[int64]bool{2: true},
		block: map[int64]bool{4: true},
	}
	m := metrics.New()
	d := New(zerolog.Nop(), m, newRegistry(t, 1, 2, 3, 4, 5), sender, 50*time.Millisecond)

	start := time.Now()
	if err := d.Dispatch(context.Background(), signal.Event{Symbol: "ETHUSDT", Price: 1}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("dispatch not bounded by send timeout: %s", elapsed)
	}
	ids := sender.ids()
	want := []int64{1, 3, 5}
	if len(ids) != len(want) {
		t.Fatalf("wrong delivered subscribers: want %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("wrong delivered subscribers: want %v, got %v", want, ids)
		}
	}
	if got := testutil.ToFloat64(m.Sends.WithLabelValues("failed")); got != 2 {
		t.Errorf("wrong failed sends metric: want 2, got %v", got)
	}
}

type brokenRegistry struct {
	subscriber.Registry
}

func (brokenRegistry) List(context.Context) ([]subscriber.Subscriber, error) {
	return nil, errors.New("connection refused")
}

func TestDispatchRegistryError(t *testing.T) {
	sender := &mockSender{sent: map[int64]string{}}
	d := New(zerolog.Nop(), metrics.New(), brokenRegistry{}, sender, time.Second)
	if err := d.Dispatch(context.Background(), signal.Event{Symbol: "ETHUSDT"}); err == nil {
		t.Fatal("expected error")
	}
	if len(sender.ids()) != 0 {
		t.Error("nothing should be sent")
	}
}

func TestDispatchNoSubscribers(t *testing.T) {
	sender := &mockSender{sent: map[int64]string{}}
	d := New(zerolog.Nop(), metrics.New(), newRegistry(t), sender, time.Second)
	if err := d.Dispatch(context.Background(), signal.Event{Symbol: "ETHUSDT"}); err != nil {
		t.Fatal(err)
	}
}
