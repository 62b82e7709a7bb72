package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func decodeBody(resp *http.Response, v any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func TestParseActorID(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		if _, err := parseActorID(c); !errors.Is(err, errMissingActor) {
			t.Errorf("Expected errMissingActor, got %v", err)
		}
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/known", func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		id, err := parseActorID(c)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if id != 42 {
			t.Errorf("Expected actor 42, got %d", id)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	for _, path := range []string{"/anon", "/known"} {
		if _, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil)); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
}

func TestParseIDParam(t *testing.T) {
	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := parseIDParam(c, "id")
		switch c.Query("want") {
		case "ok":
			if err != nil || id != 7 {
				t.Errorf("Expected id 7, got %d (%v)", id, err)
			}
		case "bad":
			if !errors.Is(err, errBadIDParam) {
				t.Errorf("Expected errBadIDParam, got %v", err)
			}
		}
		return c.SendStatus(fiber.StatusOK)
	})

	cases := []string{"/items/7?want=ok", "/items/abc?want=bad", "/items/-3?want=bad"}
	for _, path := range cases {
		if _, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil)); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
}

func TestPageParamsDefaultsAndCap(t *testing.T) {
	app := fiber.New()
	app.Get("/paged", func(c *fiber.Ctx) error {
		page, limit := pageParams(c)
		return c.JSON(fiber.Map{"page": page, "limit": limit})
	})

	check := func(path string, wantPage, wantLimit int) {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		var body struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
		}
		if err := decodeBody(resp, &body); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if body.Page != wantPage || body.Limit != wantLimit {
			t.Errorf("%s: expected page=%d limit=%d, got page=%d limit=%d", path, wantPage, wantLimit, body.Page, body.Limit)
		}
	}

	check("/paged", 1, defaultPageLimit)
	check("/paged?page=3&limit=25", 3, 25)
	check("/paged?page=0&limit=500", 1, maxPageLimit)
}
