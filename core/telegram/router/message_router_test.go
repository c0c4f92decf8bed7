package router

import (
	"testing"

	tg "github.com/m3rciful/kursbot/core/telegram"
	"github.com/m3rciful/kursbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type textUpdateContext struct {
	tele.Context
	sender *tele.User
	text   string
	store  map[string]any
}

func newTextUpdate(userID int64, text string) *textUpdateContext {
	return &textUpdateContext{
		sender: &tele.User{ID: userID},
		text:   text,
		store:  make(map[string]any),
	}
}

func (c *textUpdateContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (c *textUpdateContext) Sender() *tele.User       { return c.sender }
func (c *textUpdateContext) Chat() *tele.Chat         { return &tele.Chat{ID: c.sender.ID} }
func (c *textUpdateContext) Text() string             { return c.text }
func (c *textUpdateContext) Set(key string, val any)  { c.store[key] = val }
func (c *textUpdateContext) Get(key string) any       { return c.store[key] }

func onTextHandler(t *testing.T, reg *tg.Registry, opts TextOptions) tele.HandlerFunc {
	t.Helper()
	for _, r := range TextRoutes(nil, reg, opts) {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("OnText route missing")
	return nil
}

func TestTextRoutesDeniesRestrictedCommandByDefault(t *testing.T) {
	reg := tg.NewRegistry()
	called := false
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     func(c tele.Context) error { called = true; return nil },
		Description: "stats",
		Restricted:  true,
		Hidden:      true,
	})

	h := onTextHandler(t, reg, TextOptions{})
	if err := h(newTextUpdate(7, "stats")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if called {
		t.Fatal("restricted handler ran for bare command text without an allow-list")
	}
}

func TestTextRoutesAllowsRestrictedCommandForListedUser(t *testing.T) {
	reg := tg.NewRegistry()
	called := false
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     func(c tele.Context) error { called = true; return nil },
		Description: "stats",
		Restricted:  true,
		Hidden:      true,
	})

	h := onTextHandler(t, reg, TextOptions{AllowedIDs: []int64{7}})
	if err := h(newTextUpdate(7, "stats")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("allow-listed user was rejected")
	}
}

func TestTextRoutesDispatchesPlainCommand(t *testing.T) {
	reg := tg.NewRegistry()
	called := false
	reg.RegisterCommand("/help", commands.Command{
		Handler:     func(c tele.Context) error { called = true; return nil },
		Description: "help",
	})

	h := onTextHandler(t, reg, TextOptions{})
	if err := h(newTextUpdate(7, "help")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("unrestricted command was not dispatched from text")
	}
}
