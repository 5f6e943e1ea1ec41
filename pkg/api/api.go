package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Resp struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
}

// NewResp sends a standard JSON response using Fiber.
func NewResp(c *fiber.Ctx, data interface{}, durs []time.Duration, code ...int) error {
	appCode := 0
	if len(code) > 0 {
		appCode = code[0]
	}
	r := &Resp{
		Code: appCode,
		Data: data,
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "no-store")
	for k, dur := range durs {
		c.Set(fmt.Sprintf("X-Profile-%d", k), dur.String())
	}
	return c.Status(fiber.StatusOK).JSON(r)
}

// NewErrResp sends a JSON error response.
func NewErrResp(c *fiber.Ctx, httpStatusCode int, appErrorCode int, errMsg string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(httpStatusCode).JSON(&Resp{
		Code: appErrorCode,
		Data: errMsg,
	})
}
