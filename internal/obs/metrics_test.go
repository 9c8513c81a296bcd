package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                               "/",
		"/metrics":                       "/metrics",
		"/v1/products/01ABC":             "/v1/products/:id",
		"/v1/orders/01ABC":               "/v1/orders/:id",
		"/v1/notifications/01ABC/read":   "/v1/notifications/:id/read",
		"/v1/users/abc/extra/deep":       "/v1/users/abc/extra/deep",
		"/v1/dashboard/stats":            "/v1/dashboard/stats",
		"/v1/audit":                      "/v1/audit",
		"/v1/officines/01ABC?refresh=1":  "/v1/officines/:id",
		"/v1/auth/login":                 "/v1/auth/login",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
