package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler(t *testing.T) {
	m := New()
	m.Ticks.Inc()
	m.Skipped.WithLabelValues("ETHUSDT", "data_unavailable").Inc()
	m.Sends.WithLabelValues("ok").Add(3)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"emacross_ticks_total 1",
		`emacross_skipped_total{cause="data_unavailable",symbol="ETHUSDT"} 1`,
		`emacross_sends_total{result="ok"} 3`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output doesn't contain %q", want)
		}
	}
}

func TestNewTwice(t *testing.T) {
	// Each instance has its own registry
	_ = New()
	_ = New()
}
