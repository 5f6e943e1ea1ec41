package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kiyor/terminal/color"
)

// NewLogger returns a stdout logger with a colored "[tag]" prefix.
// code is a terminal color code such as "g", "y" or "r".
func NewLogger(tag, code string) *log.Logger {
	return log.New(os.Stdout, color.Sprint("@{"+code+"}["+tag+"]@{|} "), log.LstdFlags)
}

// LogHandler writes one access-log line per request.
type LogHandler struct {
	l *log.Logger
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler() *LogHandler {
	return &LogHandler{
		l: NewLogger("http", "g"),
	}
}

// Set allows configuring the logger's output, prefix, and flags.
func (l *LogHandler) Set(out io.Writer, prefix string, flag int) {
	l.l = log.New(out, prefix, flag)
}

// Handler is the Fiber middleware form of the access log.
func (l *LogHandler) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		t1 := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}
		ua := c.Get(fiber.HeaderUserAgent)
		res := fmt.Sprintf("%v %v %v %v %v %v '%v'", c.IP(), status, len(c.Response().Body()), c.Method(), c.OriginalURL(), time.Since(t1), ua)
		l.l.Println(res)
		return err
	}
}
