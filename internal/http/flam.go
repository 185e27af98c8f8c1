package httpapi

import (
	"encoding/csv"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
	"github.com/fairyhunter13/flam-stock-sync/internal/supplier"
)

const flamSessionCookie = "flam_session"

const loginPage = `<!doctype html>
<html><body>
<form method="post" action="/login">
  <input id="loginid" name="loginid" />
  <input id="password" name="password" type="password" />
  <button id="btn_login" type="submit">login</button>
</form>
</body></html>`

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (a *App) credentialsMatch(user, pass string) bool {
	if user == "" || pass == "" {
		return false
	}
	if a.Cfg.FlamUsername == "" && a.Cfg.FlamPassword == "" {
		return true
	}
	return user == a.Cfg.FlamUsername && pass == a.Cfg.FlamPassword
}

// loginHandler serves the login form and starts a session on valid credentials.
func (a *App) loginHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeHTML(w, http.StatusOK, loginPage)
		return
	case http.MethodPost:
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeHTML(w, http.StatusBadRequest, loginPage)
		return
	}
	if !a.credentialsMatch(r.PostForm.Get("loginid"), r.PostForm.Get("password")) {
		obs.Logger.Warn("flam_login_rejected", "request_id", RequestIDFromContext(r.Context()))
		writeHTML(w, http.StatusUnauthorized, loginPage)
		return
	}
	sid := uuid.NewString()
	a.sessions.Store(sid, struct{}{})
	http.SetCookie(w, &http.Cookie{Name: flamSessionCookie, Value: sid, Path: "/", HttpOnly: true})
	writeHTML(w, http.StatusOK, "<html><body>ok</body></html>")
}

func (a *App) hasSession(r *http.Request) bool {
	c, err := r.Cookie(flamSessionCookie)
	if err != nil {
		return false
	}
	_, ok := a.sessions.Load(c.Value)
	return ok
}

// exportHandler writes the seeded supplier rows as a Shift_JIS CSV. Without a
// session it answers with the login page, like the real application.
func (a *App) exportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if !a.hasSession(r) {
		writeHTML(w, http.StatusOK, loginPage)
		return
	}
	rows := a.Catalog.SupplierRows()
	w.Header().Set("Content-Type", "text/csv; charset=Shift_JIS")
	w.Header().Set("Content-Disposition", `attachment; filename="stock_export.csv"`)
	w.WriteHeader(http.StatusOK)

	enc := transform.NewWriter(w, japanese.ShiftJIS.NewEncoder())
	cw := csv.NewWriter(enc)
	_ = cw.Write([]string{supplier.ColSKU, "商品名", supplier.ColOnHand, supplier.ColIncoming, supplier.ColOutgoing, supplier.ColSellable})
	for _, row := range rows {
		_ = cw.Write([]string{row.SKU, "", row.OnHand, row.Incoming, row.Outgoing, row.Sellable})
	}
	cw.Flush()
	if err := enc.Close(); err != nil {
		obs.Logger.Error("flam_export_encode", "error", err)
	}
	obs.Logger.Info("flam_export_served", "request_id", RequestIDFromContext(r.Context()), "rows", len(rows), "warehouse", r.URL.Query().Get("wh_from"))
}
