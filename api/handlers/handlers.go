package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmoreno/shopfront/api/responses"
	"github.com/dmoreno/shopfront/internal/admin"
	"github.com/dmoreno/shopfront/internal/auth"
	"github.com/dmoreno/shopfront/internal/cart"
	"github.com/dmoreno/shopfront/internal/catalog"
	"github.com/dmoreno/shopfront/internal/checkout"
	"github.com/dmoreno/shopfront/internal/notify"
	"github.com/dmoreno/shopfront/internal/orders"
	"github.com/dmoreno/shopfront/internal/search"
	"github.com/dmoreno/shopfront/internal/session"
	"github.com/dmoreno/shopfront/pkg/config"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
)

// Deps collects the stores and services the gateway exposes.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Session    *session.Store
	Cart       *cart.Store
	Catalog    *catalog.Store
	Filters    *catalog.FilterState
	Search     search.Service
	Auth       auth.Service
	Orders     orders.Service
	Checkout   checkout.Service
	Notify     notify.Store
	Admin      admin.Service
	AdminCreds *admin.Credentials
}

// Healthz reports process liveness.
func Healthz(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Shopfront-Env", cfg.App.Env)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// SessionView returns the current session snapshot. Tokens never leave
// the process; only derived flags and the user profile are exposed.
func SessionView(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := d.Session.Snapshot()
		responses.WriteSuccess(w, map[string]any{
			"is_authenticated": snap.IsAuthenticated,
			"loading":          snap.Loading,
			"error":            snap.Error,
			"user":             snap.User,
		})
	}
}

// Login runs the email/password flow.
func Login(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.LoginInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.Auth.Login(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, d.Session.Snapshot().User)
	}
}

// Register creates an account and opens a session.
func Register(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.RegisterInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.Auth.Register(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, d.Session.Snapshot().User)
	}
}

// VerifyOTP confirms a registration code.
func VerifyOTP(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.VerifyOTPInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.Auth.VerifyOTP(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, d.Session.Snapshot().User)
	}
}

// GoogleLogin exchanges a Google credential for a session.
func GoogleLogin(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input auth.GoogleInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.Auth.Google(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, d.Session.Snapshot().User)
	}
}

// Logout tears down the session.
func Logout(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Auth.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		d.Cart.Clear(r.Context())
		responses.WriteSuccess(w, map[string]bool{"logged_out": true})
	}
}

// Products returns the visible product list after filter composition.
func Products(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Catalog.Load(r.Context()); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}

		if category := r.URL.Query().Get("category"); category != "" {
			d.Filters.SetCategory(category)
		}
		if q := r.URL.Query().Get("q"); q != "" {
			d.Filters.SetSearchText(q)
		}

		visible := catalog.VisibleProducts(d.Catalog.Products(), d.Filters.Current())
		responses.WriteSuccess(w, visible)
	}
}

// Categories returns the filter bar's category list.
func Categories(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := d.Catalog.LoadCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// SemanticSearch runs AI search and installs the override.
func SemanticSearch(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input struct {
			Query string `json:"query"`
		}
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		results, err := d.Search.Semantic(r.Context(), input.Query)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// ClearSearch drops the AI override and returns to local filtering.
func ClearSearch(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Filters.ClearAIResults()
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

// Chat relays a message to the storefront assistant.
func Chat(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input struct {
			Message string `json:"message"`
		}
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		reply, err := d.Search.Chat(r.Context(), input.Message)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"reply": reply})
	}
}

// CartView returns the synchronized cart snapshot.
func CartView(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Cart.Fetch(r.Context()); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, cartPayload(d.Cart.Snapshot()))
	}
}

// CartAdd adds a line and returns the replaced cart.
func CartAdd(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input cart.AddInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.Cart.Add(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, cartPayload(d.Cart.Snapshot()))
	}
}

// CartRemove drops a line and returns the replaced cart.
func CartRemove(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input cart.RemoveInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.Cart.Remove(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, cartPayload(d.Cart.Snapshot()))
	}
}

// CartUpdate sets a line quantity and returns the replaced cart.
func CartUpdate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input cart.UpdateInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.Cart.UpdateQuantity(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, cartPayload(d.Cart.Snapshot()))
	}
}

// OrdersList returns the shopper's orders.
func OrdersList(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Orders.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderGet returns one order.
func OrderGet(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := d.Orders.Get(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderPlace submits checkout.
func OrderPlace(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input orders.PlaceInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		order, err := d.Orders.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderCancel cancels an order.
func OrderCancel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := d.Orders.Cancel(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CheckoutComplete confirms server-side cart clearing post-checkout.
func CheckoutComplete(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Checkout.Complete(r.Context()); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"completed": true})
	}
}

// Notifications returns the transient UI notification state.
func Notifications(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modal, visible := d.Notify.Generic()
		payload := map[string]any{
			"banned_modal_visible": d.Notify.BannedVisible(),
			"tooltip_seen":         d.Notify.TooltipSeen(r.Context()),
		}
		if visible {
			payload["generic_modal"] = map[string]string{
				"title":   modal.Title,
				"message": modal.Message,
			}
		}
		responses.WriteSuccess(w, payload)
	}
}

func cartPayload(snap cart.Snapshot) map[string]any {
	return map[string]any{
		"lines":          snap.Lines,
		"total_quantity": snap.Totals.Items,
		"total_price":    snap.Totals.Subtotal,
		"syncing":        snap.Syncing,
	}
}

func decode(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	return nil
}
