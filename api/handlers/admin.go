package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmoreno/shopfront/api/responses"
	"github.com/dmoreno/shopfront/internal/admin"
)

// AdminSession reports whether an admin credential is held. The token
// itself never leaves the process.
func AdminSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]bool{
			"authenticated": d.AdminCreds.Present(),
		})
	}
}

// AdminLogin exchanges admin credentials for the admin-namespace token.
func AdminLogin(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input admin.LoginInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		if err := d.Admin.Login(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"authenticated": true})
	}
}

// AdminLogout drops the admin credential.
func AdminLogout(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Admin.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"authenticated": false})
	}
}

// AdminProductCreate adds a product; the shopper catalog is invalidated
// so the next load reflects it.
func AdminProductCreate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input admin.ProductInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		product, err := d.Admin.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminProductUpdate replaces a product.
func AdminProductUpdate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input admin.ProductInput
		if err := decode(r, &input); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		product, err := d.Admin.UpdateProduct(r.Context(), chi.URLParam(r, "productID"), input)
		if err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminProductDelete removes a product.
func AdminProductDelete(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Admin.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
			responses.WriteError(r.Context(), d.Logger, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
