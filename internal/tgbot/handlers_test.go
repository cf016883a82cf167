package tgbot

import (
	"context"
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/cemtembot/core/telegram"
	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/messenger"
)

type call struct {
	kind  string
	addr  domain.Address
	input string
}

type fakeConv struct{ calls []call }

func (f *fakeConv) OnText(_ context.Context, addr domain.Address, text string) error {
	f.calls = append(f.calls, call{"text", addr, text})
	return nil
}

func (f *fakeConv) OnButtonPress(_ context.Context, addr domain.Address, token string) error {
	f.calls = append(f.calls, call{"button", addr, token})
	return nil
}

func (f *fakeConv) OnStatus(_ context.Context, addr domain.Address) error {
	f.calls = append(f.calls, call{"status", addr, ""})
	return nil
}

func (f *fakeConv) OnDeactivate(_ context.Context, addr domain.Address, vendorID string) error {
	f.calls = append(f.calls, call{"deactivate", addr, vendorID})
	return nil
}

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Token: "1:offline", Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b
}

func TestHandlersForwardUpdates(t *testing.T) {
	b := offlineBot(t)
	conv := &fakeConv{}
	h := New(conv)

	chat := &tele.Chat{ID: 4242}
	if err := h.Text(b.NewContext(tele.Update{ID: 1, Message: &tele.Message{Text: "50 bags", Chat: chat}})); err != nil {
		t.Fatalf("text: %v", err)
	}
	cb := &tele.Callback{Unique: messenger.ButtonUnique, Data: "bcity_guwahati", Message: &tele.Message{Chat: chat}}
	if err := h.Button(b.NewContext(tele.Update{ID: 2, Callback: cb})); err != nil {
		t.Fatalf("button: %v", err)
	}
	if err := h.Command("/start")(b.NewContext(tele.Update{ID: 3, Message: &tele.Message{Text: "/start ref", Chat: chat}})); err != nil {
		t.Fatalf("command: %v", err)
	}
	if err := h.Status(b.NewContext(tele.Update{ID: 4, Message: &tele.Message{Text: "/status", Chat: chat}})); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := h.Deactivate(b.NewContext(tele.Update{ID: 5, Message: &tele.Message{Text: "/deactivate VEN-42", Payload: "VEN-42", Chat: chat}})); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	want := []call{
		{"text", domain.Address{Channel: domain.ChannelTelegram, ID: "4242"}, "50 bags"},
		{"button", domain.Address{Channel: domain.ChannelTelegram, ID: "4242"}, "bcity_guwahati"},
		{"text", domain.Address{Channel: domain.ChannelTelegram, ID: "4242"}, "/start"},
		{"status", domain.Address{Channel: domain.ChannelTelegram, ID: "4242"}, ""},
		{"deactivate", domain.Address{Channel: domain.ChannelTelegram, ID: "4242"}, "VEN-42"},
	}
	if len(conv.calls) != len(want) {
		t.Fatalf("unexpected calls %+v", conv.calls)
	}
	for i := range want {
		if conv.calls[i] != want[i] {
			t.Fatalf("call %d: got %+v want %+v", i, conv.calls[i], want[i])
		}
	}
}

func TestRegister(t *testing.T) {
	reg := tg.NewRegistry()
	h := New(&fakeConv{})
	if err := h.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := reg.GetCallback(messenger.ButtonUnique); !ok {
		t.Fatal("quick-reply callback not registered")
	}
	if reg.TextFallback() == nil {
		t.Fatal("text fallback not set")
	}
	visible := reg.ListCommands(true)
	if len(visible) != 2 {
		t.Fatalf("admin commands must be hidden from the menu, got %+v", visible)
	}
	if key, _, ok := reg.LookupCommand("restart"); !ok || key != "/start" {
		t.Fatalf("alias lookup failed: %q %v", key, ok)
	}
	if routes := h.Routes(reg, 1); len(routes) != 5+1+5 {
		t.Fatalf("unexpected route count %d", len(routes))
	}
}

func TestContextCarriesSenderName(t *testing.T) {
	b := offlineBot(t)
	c := b.NewContext(tele.Update{ID: 5, Message: &tele.Message{
		Text:   "hi",
		Chat:   &tele.Chat{ID: 7},
		Sender: &tele.User{ID: 7, FirstName: "Ravi"},
	}})
	if got := domain.SenderName(Context(c)); got != "Ravi" {
		t.Fatalf("sender name = %q, want Ravi", got)
	}
	anon := b.NewContext(tele.Update{ID: 6, Message: &tele.Message{Text: "hi", Chat: &tele.Chat{ID: 8}}})
	if got := domain.SenderName(Context(anon)); got != "" {
		t.Fatalf("sender name = %q, want empty", got)
	}
}
