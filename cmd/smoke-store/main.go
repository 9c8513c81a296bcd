// Command smoke-store exercises a running pharmadesk-api end to end:
// login, a product create/update/delete cycle, and an audit check that
// exactly three entries were recorded for it.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	base := os.Getenv("PHARMADESK_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 10 * time.Second}

	var session struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	request(client, base, "", http.MethodPost, "/v1/auth/login", map[string]any{
		"email":    "admin@pharmadesk.org",
		"password": "pharma123",
	}, &session)

	var before struct {
		Total int `json:"total"`
	}
	request(client, base, session.Token, http.MethodGet, "/v1/audit?limit=1", nil, &before)

	var product struct {
		ID string `json:"id"`
	}
	request(client, base, session.Token, http.MethodPost, "/v1/products", map[string]any{
		"cip":          "3400912345678",
		"name":         "Smoke Test 500 mg",
		"category":     "Tests",
		"manufacturer": "Smoke Labs",
		"price":        100,
		"stock":        10,
		"unit":         "boîte",
		"status":       "available",
	}, &product)

	request(client, base, session.Token, http.MethodPatch, "/v1/products/"+product.ID, map[string]any{
		"price": 150,
	}, nil)
	request(client, base, session.Token, http.MethodDelete, "/v1/products/"+product.ID, nil, nil)

	var after struct {
		Total int `json:"total"`
	}
	request(client, base, session.Token, http.MethodGet, "/v1/audit?limit=1", nil, &after)

	if got := after.Total - before.Total; got != 3 {
		log.Fatalf("expected 3 new audit entries, got %d", got)
	}

	fmt.Printf("smoke test passed: logged in as %s, product cycle audited\n", session.Name)
}

func request(client *http.Client, base, token, method, path string, body, out any) {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("%s %s: encode body: %v", method, path, err)
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, base+path, payload)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Fatalf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
}
