package httpinterface

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mpurse-network/mpurse-daemon/internal/core/application"
	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type handler struct {
	walletSvc application.WalletService
}

type passwordRequest struct {
	Password string `json:"password"`
}

type txRequest struct {
	Tx string `json:"tx"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type saveNewPassphraseRequest struct {
	Passphrase  string             `json:"passphrase"`
	SeedVersion wallet.SeedVersion `json:"seedVersion"`
	BasePath    string             `json:"basePath"`
	BaseName    string             `json:"baseName"`
}

type importAccountRequest struct {
	PrivateKey string `json:"privatekey"`
	Name       string `json:"name"`
}

type shiftRequestRequest struct {
	IsSuccessful bool             `json:"isSuccessful"`
	ID           domain.RequestID `json:"id"`
	Result       json.RawMessage  `json:"result"`
}

type approveOriginRequest struct {
	Origin string           `json:"origin"`
	ID     domain.RequestID `json:"id"`
}

type verifyMessageRequest struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

func (h *handler) unlock(w http.ResponseWriter, req *http.Request) {
	var body passwordRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.walletSvc.Unlock(req.Context(), body.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isUnlocked": h.walletSvc.IsUnlocked()})
}

func (h *handler) lock(w http.ResponseWriter, req *http.Request) {
	h.walletSvc.Lock()
	writeJSON(w, http.StatusOK, map[string]bool{"isUnlocked": false})
}

func (h *handler) status(w http.ResponseWriter, req *http.Request) {
	exists, err := h.walletSvc.ExistsVault(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"isUnlocked":  h.walletSvc.IsUnlocked(),
		"existsVault": exists,
	})
}

func (h *handler) getAddress(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"address": h.walletSvc.SelectedAddress(),
	})
}

func (h *handler) setAddress(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Address string `json:"address"`
	}
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.walletSvc.SetSelectedAddress(req.Context(), body.Address); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": h.walletSvc.SelectedAddress(),
	})
}

func (h *handler) identities(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]domain.Identity{
		"identities": h.walletSvc.Identities(),
	})
}

func (h *handler) setAccountName(w http.ResponseWriter, req *http.Request) {
	var body nameRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	address := mux.Vars(req)["address"]
	if err := h.walletSvc.SetAccountName(req.Context(), address, body.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *handler) saveNewPassphrase(w http.ResponseWriter, req *http.Request) {
	var body saveNewPassphraseRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.walletSvc.SaveNewPassphrase(
		req.Context(), application.SaveNewPassphraseOpts{
			Passphrase:  body.Passphrase,
			SeedVersion: body.SeedVersion,
			BasePath:    body.BasePath,
			BaseName:    body.BaseName,
		},
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": h.walletSvc.SelectedAddress(),
	})
}

func (h *handler) revealPassphrase(w http.ResponseWriter, req *http.Request) {
	var body passwordRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"passphrase": h.walletSvc.Passphrase(body.Password),
	})
}

func (h *handler) revealHdkey(w http.ResponseWriter, req *http.Request) {
	var body passwordRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*domain.Hdkey{
		"hdkey": h.walletSvc.Hdkey(body.Password),
	})
}

func (h *handler) createAccount(w http.ResponseWriter, req *http.Request) {
	var body nameRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	identity, err := h.walletSvc.CreateAccount(req.Context(), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *handler) importAccount(w http.ResponseWriter, req *http.Request) {
	var body importAccountRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	identity, err := h.walletSvc.ImportAccount(
		req.Context(), body.PrivateKey, body.Name,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (h *handler) removeAccount(w http.ResponseWriter, req *http.Request) {
	address := mux.Vars(req)["address"]
	if err := h.walletSvc.RemoveAccount(req.Context(), address); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *handler) revealPrivateKey(w http.ResponseWriter, req *http.Request) {
	var body passwordRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	address := mux.Vars(req)["address"]
	writeJSON(w, http.StatusOK, map[string]string{
		"privatekey": h.walletSvc.PrivateKey(body.Password, address),
	})
}

func (h *handler) accountName(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	num := 1
	if n := query.Get("num"); n != "" {
		var err error
		if num, err = strconv.Atoi(n); err != nil {
			writeError(w, ErrInvalidQuery)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name": h.walletSvc.IncrementAccountName(query.Get("base"), num),
	})
}

func (h *handler) pendingRequest(w http.ResponseWriter, req *http.Request) {
	var id *domain.RequestID
	if str := req.URL.Query().Get("id"); str != "" {
		requestID := domain.RequestID(str)
		id = &requestID
	}

	request, ok := h.walletSvc.GetPendingRequest(id)
	if !ok && id != nil {
		writeError(w, domain.ErrRequestNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request": request,
		"count":   h.walletSvc.PendingRequestsCount(),
	})
}

func (h *handler) shiftRequest(w http.ResponseWriter, req *http.Request) {
	var body shiftRequestRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.walletSvc.ShiftRequest(
		body.IsSuccessful, body.ID, body.Result,
	); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"count": h.walletSvc.PendingRequestsCount(),
	})
}

func (h *handler) approveOrigin(w http.ResponseWriter, req *http.Request) {
	var body approveOriginRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	isPending := h.walletSvc.ApproveOrigin(body.Origin, body.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"isPending": isPending})
}

func (h *handler) signTx(w http.ResponseWriter, req *http.Request) {
	var body txRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	signedTx, err := h.walletSvc.SignRawTransaction(req.Context(), body.Tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signedTx": signedTx})
}

func (h *handler) sendRawTx(w http.ResponseWriter, req *http.Request) {
	var body txRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.walletSvc.SendRawTransaction(req.Context(), body.Tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func (h *handler) sendTx(w http.ResponseWriter, req *http.Request) {
	var body txRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.walletSvc.Send(req.Context(), body.Tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func (h *handler) signMessage(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	signature, err := h.walletSvc.SignMessage(body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signature": signature})
}

func (h *handler) verifyMessage(w http.ResponseWriter, req *http.Request) {
	var body verifyMessageRequest
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	isValid, err := h.walletSvc.VerifyMessage(
		body.Address, body.Message, body.Signature,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isValid": isValid})
}

func (h *handler) getAdvancedMode(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"enabled": h.walletSvc.IsAdvancedModeEnabled(),
	})
}

func (h *handler) setAdvancedMode(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.walletSvc.SetAdvancedMode(req.Context(), body.Enabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": body.Enabled})
}

func (h *handler) getLang(w http.ResponseWriter, req *http.Request) {
	lang, err := h.walletSvc.Lang(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"lang": lang})
}

func (h *handler) setLang(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Lang string `json:"lang"`
	}
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.walletSvc.SetLang(req.Context(), body.Lang); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"lang": body.Lang})
}

func (h *handler) purge(w http.ResponseWriter, req *http.Request) {
	if err := h.walletSvc.PurgeAll(req.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *handler) existsVault(w http.ResponseWriter, req *http.Request) {
	exists, err := h.walletSvc.ExistsVault(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *handler) decodeBase58(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Str string `json:"str"`
	}
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	buf, err := h.walletSvc.DecodeBase58(body.Str)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hex": hex.EncodeToString(buf)})
}

func (h *handler) mnemonic(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	seedVersion := wallet.SeedVersion(query.Get("seedVersion"))
	if seedVersion == "" {
		seedVersion = wallet.SeedVersionBip39
	}
	mnemonic, err := h.walletSvc.GenerateRandomMnemonic(seedVersion, query.Get("lang"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mnemonic": mnemonic})
}

func (h *handler) addressInfo(w http.ResponseWriter, req *http.Request) {
	res, err := h.walletSvc.GetAddressInfo(req.Context(), mux.Vars(req)["address"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func (h *handler) asset(w http.ResponseWriter, req *http.Request) {
	res, err := h.walletSvc.GetAsset(req.Context(), mux.Vars(req)["asset"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func (h *handler) accountSummary(w http.ResponseWriter, req *http.Request) {
	res, err := h.walletSvc.GetAccountSummary(req.Context(), mux.Vars(req)["address"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func (h *handler) balances(w http.ResponseWriter, req *http.Request) {
	page, limit, err := pagination(req)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.walletSvc.GetBalances(
		req.Context(), mux.Vars(req)["address"], page, limit,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func (h *handler) mempool(w http.ResponseWriter, req *http.Request) {
	page, limit, err := pagination(req)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.walletSvc.GetMempool(
		req.Context(), mux.Vars(req)["address"], page, limit,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func (h *handler) createSend(w http.ResponseWriter, req *http.Request) {
	var body explorer.CreateSendOpts
	if err := decodeBody(req, &body); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.walletSvc.CreateSend(req.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, res)
}

func pagination(req *http.Request) (int, int, error) {
	query := req.URL.Query()
	page, limit := defaultPage, defaultLimit

	if p := query.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return 0, 0, ErrInvalidQuery
		}
		page = n
	}
	if l := query.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			return 0, 0, ErrInvalidQuery
		}
		limit = n
	}
	return page, limit, nil
}
