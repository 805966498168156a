package telegram

import (
	"testing"
	"time"

	tb "gopkg.in/tucnak/telebot.v2"
)

func TestNewTransport(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		listen  string
		url     string
		want    string
		wantErr bool
	}{
		{name: "polling", mode: "polling", want: "polling"},
		{name: "dev alias", mode: "dev", want: "polling"},
		{name: "webhook", mode: "webhook", listen: "0.0.0.0:8443", url: "https://bot.example.com/token", want: "webhook"},
		{name: "prod alias", mode: "prod", listen: "0.0.0.0:8443", url: "https://bot.example.com/token", want: "webhook"},
		{name: "webhook without url", mode: "webhook", listen: "0.0.0.0:8443", wantErr: true},
		{name: "no mode", mode: "", wantErr: true},
		{name: "unknown mode", mode: "carrier-pigeon", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransport(tt.mode, tt.listen, tt.url)
			if err != nil {
				if tt.wantErr {
					return
				}
				t.Fatal(err)
			}
			if tt.wantErr {
				t.Fatal("expected error")
			}
			if tr.String() != tt.want {
				t.Errorf("want %s, got %s", tt.want, tr)
			}
		})
	}
}

func TestPoller(t *testing.T) {
	p, err := Polling{Timeout: 5 * time.Second}.poller()
	if err != nil {
		t.Fatal(err)
	}
	lp, ok := p.(*tb.LongPoller)
	if !ok {
		t.Fatalf("want *tb.LongPoller, got %T", p)
	}
	if lp.Timeout != 5*time.Second {
		t.Errorf("wrong timeout: %s", lp.Timeout)
	}

	p, err = Webhook{Listen: ":8443", PublicURL: "https://bot.example.com/token"}.poller()
	if err != nil {
		t.Fatal(err)
	}
	wh, ok := p.(*tb.Webhook)
	if !ok {
		t.Fatalf("want *tb.Webhook, got %T", p)
	}
	if wh.Listen != ":8443" || wh.Endpoint.PublicURL != "https://bot.example.com/token" {
		t.Errorf("wrong webhook: %+v", wh)
	}
}
