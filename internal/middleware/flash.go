package middleware

import (
	"encoding/gob"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Message levels.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

const flashKey = "flashes"

type FlashMessage struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func init() {
	gob.Register([]FlashMessage{})
}

var sessions = session.New()

// InitSessions configures where flash messages are kept between requests.
// A nil storage keeps them in memory.
func InitSessions(storage fiber.Storage, ttl time.Duration) {
	sessions = session.New(session.Config{
		Storage:        storage,
		Expiration:     ttl,
		KeyLookup:      "cookie:route_tracker_session",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *fiber.Ctx, level, text string) {
	sess, err := sessions.Get(c)
	if err != nil {
		slog.Error("session unavailable", "error", err)
		return
	}
	flashes, _ := sess.Get(flashKey).([]FlashMessage)
	sess.Set(flashKey, append(flashes, FlashMessage{Level: level, Text: text}))
	if err := sess.Save(); err != nil {
		slog.Error("failed to save session", "error", err)
	}
}

// PopFlashes returns and clears the queued messages.
func PopFlashes(c *fiber.Ctx) []FlashMessage {
	sess, err := sessions.Get(c)
	if err != nil {
		slog.Error("session unavailable", "error", err)
		return nil
	}
	flashes, _ := sess.Get(flashKey).([]FlashMessage)
	if len(flashes) == 0 {
		return nil
	}
	sess.Delete(flashKey)
	if err := sess.Save(); err != nil {
		slog.Error("failed to save session", "error", err)
	}
	return flashes
}
