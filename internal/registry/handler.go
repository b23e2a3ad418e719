package registry

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/aegis-admin/aegis-admin/internal/platform/httpx"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// Handler serves the permission matrix consumed by role-editing UIs.
// The action list is injected by the caller: the permission package imports
// this one for path validation, so the dependency cannot point back.
type Handler struct {
	registry *Registry
	actions  []string
	guard    shared.PermissionGuard
}

// NewHandler constructs a Handler instance. actions is the set advertised
// for every module, normally permission.Actions().
func NewHandler(registry *Registry, actions []string, guard shared.PermissionGuard) *Handler {
	return &Handler{registry: registry, actions: actions, guard: guard}
}

// MountRoutes registers matrix routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard("roles.view"))
		r.Get("/modules", h.modules)
	})
}

type moduleEntry struct {
	Path     string        `json:"path"`
	Actions  []string      `json:"actions"`
	Children []moduleEntry `json:"children,omitempty"`
}

func (h *Handler) modules(w http.ResponseWriter, r *http.Request) {
	roots := h.registry.Roots()
	out := make([]moduleEntry, 0, len(roots))
	for _, n := range roots {
		out = append(out, h.toEntry("", n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) toEntry(prefix string, n Node) moduleEntry {
	path := n.Key
	if prefix != "" {
		path = prefix + "." + n.Key
	}
	entry := moduleEntry{Path: path, Actions: h.actions}
	for _, c := range n.Children {
		entry.Children = append(entry.Children, h.toEntry(path, c))
	}
	sort.Slice(entry.Children, func(i, j int) bool { return entry.Children[i].Path < entry.Children[j].Path })
	return entry
}
