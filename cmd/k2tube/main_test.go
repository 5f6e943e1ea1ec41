package main

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kiyor/k2tube/pkg/core"
)

func TestServeAppJS(t *testing.T) {
	app := fiber.New()
	app.Get("/app.js", serveAppJS)

	req := httptest.NewRequest("GET", "http://tube.test/app.js", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	js := string(b)
	if !strings.Contains(js, `var host = "http://tube.test";`) {
		t.Errorf("host not templated:\n%s", js)
	}
	if strings.Contains(js, "[[") {
		t.Error("unexecuted template action left in app.js")
	}
	if !strings.Contains(js, "root.dataset.view") {
		t.Error("app.js does not poll the page's view")
	}
}

func TestReqToMapFiberHostOverride(t *testing.T) {
	saved := core.GlobalAppConfig.FlagHost
	defer func() { core.GlobalAppConfig.FlagHost = saved }()
	core.GlobalAppConfig.FlagHost = "https://tube.example/"

	app := fiber.New()
	var got map[string]interface{}
	app.Get("/", func(c *fiber.Ctx) error {
		got = reqToMapFiber(c)
		return nil
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if len(got) != 1 || got["host"] != "https://tube.example" {
		t.Errorf("template data = %v", got)
	}
}
