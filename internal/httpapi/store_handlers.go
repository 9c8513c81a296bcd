package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"pharmadesk.org/internal/store"
)

func listPayload(items any, count int, st store.FetchState) map[string]any {
	payload := map[string]any{
		"items": items,
		"count": count,
	}
	if !st.FetchedAt.IsZero() {
		payload["fetched_at"] = st.FetchedAt
	}
	return payload
}

// --- users ---

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if err := a.store.Ensure(r.Context(), store.ColUsers); err != nil {
			handleStoreError(w, r, err)
			return
		}
		users := a.store.Users()
		writeJSON(w, http.StatusOK, listPayload(users, len(users), a.store.State(store.ColUsers)))
	case http.MethodPost:
		var u store.User
		if err := decodeJSON(w, r, &u); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.store.AddUser(r.Context(), u)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/users/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var patch store.UserPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.store.UpdateUser(r.Context(), id, patch)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := a.store.DeleteUser(r.Context(), id); err != nil {
			handleStoreError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

// --- officines ---

func (a *API) handleOfficinesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if err := a.store.Ensure(r.Context(), store.ColOfficines); err != nil {
			handleStoreError(w, r, err)
			return
		}
		officines := a.store.Officines()
		writeJSON(w, http.StatusOK, listPayload(officines, len(officines), a.store.State(store.ColOfficines)))
	case http.MethodPost:
		var o store.Officine
		if err := decodeJSON(w, r, &o); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.store.AddOfficine(r.Context(), o)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOfficineResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/officines/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var patch store.OfficinePatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.store.UpdateOfficine(r.Context(), id, patch)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := a.store.DeleteOfficine(r.Context(), id); err != nil {
			handleStoreError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

// --- products ---

func (a *API) handleProductsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if err := a.store.Ensure(r.Context(), store.ColProducts); err != nil {
			handleStoreError(w, r, err)
			return
		}
		products := a.store.Products()
		writeJSON(w, http.StatusOK, listPayload(products, len(products), a.store.State(store.ColProducts)))
	case http.MethodPost:
		var p store.Product
		if err := decodeJSON(w, r, &p); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.store.AddProduct(r.Context(), p)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProductResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/products/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var patch store.ProductPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.store.UpdateProduct(r.Context(), id, patch)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := a.store.DeleteProduct(r.Context(), id); err != nil {
			handleStoreError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

// --- orders ---

func (a *API) handleOrdersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if err := a.store.Ensure(r.Context(), store.ColOrders); err != nil {
			handleStoreError(w, r, err)
			return
		}
		orders := a.store.Orders()
		writeJSON(w, http.StatusOK, listPayload(orders, len(orders), a.store.State(store.ColOrders)))
	case http.MethodPost:
		var o store.Order
		if err := decodeJSON(w, r, &o); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.store.AddOrder(r.Context(), o)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrderResource(w http.ResponseWriter, r *http.Request) {
	id, ok := resourceID(r.URL.Path, "/v1/orders/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var patch store.OrderPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.store.UpdateOrder(r.Context(), id, patch)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := a.store.DeleteOrder(r.Context(), id); err != nil {
			handleStoreError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPatch, http.MethodDelete)
	}
}

// --- notifications ---

func (a *API) handleNotificationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if err := a.store.Ensure(r.Context(), store.ColNotifications); err != nil {
			handleStoreError(w, r, err)
			return
		}
		notifications := a.store.Notifications()
		writeJSON(w, http.StatusOK, listPayload(notifications, len(notifications), a.store.State(store.ColNotifications)))
	case http.MethodPost:
		var n store.Notification
		if err := decodeJSON(w, r, &n); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.store.AddNotification(r.Context(), n)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleNotificationResource routes /v1/notifications/{id} and
// /v1/notifications/{id}/read.
func (a *API) handleNotificationResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/notifications/")
	rest = strings.TrimSuffix(rest, "/")

	if id, found := strings.CutSuffix(rest, "/read"); found {
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		if err := a.store.MarkNotificationRead(r.Context(), id); err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "read"})
		return
	}

	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if err := a.store.DeleteNotification(r.Context(), rest); err != nil {
		handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- dashboard, audit, ui ---

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if err := a.store.Ensure(r.Context(), store.ColStats); err != nil {
		handleStoreError(w, r, err)
		return
	}
	stats, ok := a.store.Stats()
	if !ok {
		writeError(w, r, http.StatusNotFound, "stats not available")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries := a.auditLog.Entries(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
		"total":   a.auditLog.Len(),
	})
}

type uiPatch struct {
	ActiveModule  *string `json:"active_module,omitempty"`
	ToggleSidebar bool    `json:"toggle_sidebar,omitempty"`
	ToggleTheme   bool    `json:"toggle_theme,omitempty"`
}

func (a *API) handleUI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.store.UI())
	case http.MethodPatch:
		var patch uiPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if patch.ActiveModule != nil {
			a.store.SetActiveModule(*patch.ActiveModule)
		}
		if patch.ToggleSidebar {
			a.store.ToggleSidebar()
		}
		if patch.ToggleTheme {
			a.store.ToggleTheme()
		}
		writeJSON(w, http.StatusOK, a.store.UI())
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}
