package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/chopchop-pos/order-engine/internal/menu"
)

// MenuHandler exposes menu browsing and cashier menu management.
type MenuHandler struct {
	menus *menu.Service
}

func NewMenuHandler(menus *menu.Service) *MenuHandler {
	return &MenuHandler{menus: menus}
}

func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if term := q.Get("search"); term != "" {
		items, err := h.menus.Search(r.Context(), term)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	if category := q.Get("category_id"); category != "" {
		categoryID, err := uuid.FromString(category)
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}
		items, err := h.menus.ListByCategory(r.Context(), categoryID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	var (
		items []menu.Item
		err   error
	)
	if q.Get("all") == "true" {
		items, err = h.menus.ListAll(r.Context())
	} else {
		items, err = h.menus.ListAvailable(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid menu id", http.StatusBadRequest)
		return
	}

	item, err := h.menus.GetMenuItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid menu id", http.StatusBadRequest)
		return
	}

	var item menu.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	item.ID = id

	if err := h.menus.UpdateItem(r.Context(), &item, changedBy(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *MenuHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid menu id", http.StatusBadRequest)
		return
	}

	item, err := h.menus.ToggleAvailability(r.Context(), id, changedBy(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *MenuHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.menus.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// changedBy identifies the acting cashier for the audit trail. The
// authentication layer in front of the engine sets the header.
func changedBy(r *http.Request) string {
	if who := r.Header.Get("X-Cashier-ID"); who != "" {
		return who
	}
	return "unknown"
}
