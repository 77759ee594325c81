package application

import (
	"context"
	"encoding/json"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/pkg/explorer"
	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

// WalletService is the control surface of the wallet used by the UI.
type WalletService interface {
	IsUnlocked() bool
	Unlock(ctx context.Context, password string) error
	Lock()
	ExistsVault(ctx context.Context) (bool, error)
	PurgeAll(ctx context.Context) error
	GenerateRandomMnemonic(seedVersion wallet.SeedVersion, lang string) (string, error)
	SaveNewPassphrase(ctx context.Context, opts SaveNewPassphraseOpts) error
	Passphrase(password string) string
	Hdkey(password string) *domain.Hdkey
	PrivateKey(password, address string) string

	SelectedAddress() string
	SetSelectedAddress(ctx context.Context, address string) error
	Identities() []domain.Identity
	CreateAccount(ctx context.Context, name string) (*domain.Identity, error)
	ImportAccount(ctx context.Context, wif, name string) (*domain.Identity, error)
	RemoveAccount(ctx context.Context, address string) error
	SetAccountName(ctx context.Context, address, name string) error
	IncrementAccountName(base string, num int) string

	IsAdvancedModeEnabled() bool
	SetAdvancedMode(ctx context.Context, enabled bool) error
	Lang(ctx context.Context) (string, error)
	SetLang(ctx context.Context, lang string) error

	GetPendingRequest(id *domain.RequestID) (*domain.PendingRequest, bool)
	PendingRequestsCount() int
	ShiftRequest(isSuccessful bool, id domain.RequestID, result json.RawMessage) error
	ApproveOrigin(origin string, id domain.RequestID) bool

	SignRawTransaction(ctx context.Context, txHex string) (string, error)
	SendRawTransaction(ctx context.Context, txHex string) (json.RawMessage, error)
	Send(ctx context.Context, txHex string) (json.RawMessage, error)
	SignMessage(message string) (string, error)
	VerifyMessage(address, message, signature string) (bool, error)
	DecodeBase58(str string) ([]byte, error)

	GetAddressInfo(ctx context.Context, address string) (json.RawMessage, error)
	GetAccountSummary(ctx context.Context, address string) (json.RawMessage, error)
	GetAsset(ctx context.Context, asset string) (json.RawMessage, error)
	GetBalances(ctx context.Context, address string, page, limit int) (json.RawMessage, error)
	GetMempool(ctx context.Context, address string, page, limit int) (json.RawMessage, error)
	CreateSend(ctx context.Context, opts explorer.CreateSendOpts) (json.RawMessage, error)
}

type walletService struct {
	*Session
	explorer explorer.Service
}

// NewWalletService returns the control surface backed by the given session
// and remote API.
func NewWalletService(
	session *Session, explorerSvc explorer.Service,
) (WalletService, error) {
	if session == nil {
		return nil, ErrNullSession
	}
	if explorerSvc == nil {
		return nil, ErrNullExplorer
	}
	return &walletService{session, explorerSvc}, nil
}

func (w *walletService) Unlock(ctx context.Context, password string) error {
	if err := w.Session.Unlock(ctx, password); err != nil {
		return err
	}
	if w.Session.IsUnlocked() {
		log.Info("wallet unlocked")
	}
	return nil
}

func (w *walletService) Lock() {
	w.Session.Lock()
	log.Info("wallet locked")
}

func (w *walletService) GenerateRandomMnemonic(
	seedVersion wallet.SeedVersion, lang string,
) (string, error) {
	return wallet.NewMnemonic(wallet.NewMnemonicOpts{
		SeedVersion: seedVersion,
		Language:    lang,
	})
}

func (w *walletService) SignRawTransaction(
	ctx context.Context, txHex string,
) (string, error) {
	account, err := w.selectedAccount()
	if err != nil {
		return "", err
	}
	return account.Key().SignTransaction(ctx, wallet.SignTransactionOpts{
		TxHex:   txHex,
		Fetcher: w.explorer,
	})
}

func (w *walletService) SendRawTransaction(
	ctx context.Context, txHex string,
) (json.RawMessage, error) {
	signedTx, err := w.SignRawTransaction(ctx, txHex)
	if err != nil {
		return nil, err
	}
	return w.explorer.SendTx(ctx, signedTx)
}

func (w *walletService) Send(
	ctx context.Context, txHex string,
) (json.RawMessage, error) {
	if !w.Session.IsUnlocked() {
		return nil, domain.ErrNotLoggedIn
	}
	return w.SendRawTransaction(ctx, txHex)
}

func (w *walletService) SignMessage(message string) (string, error) {
	account, err := w.selectedAccount()
	if err != nil {
		return "", err
	}
	return account.Key().SignMessage(message)
}

func (w *walletService) VerifyMessage(
	address, message, signature string,
) (bool, error) {
	return wallet.VerifyMessage(address, message, signature, w.Network())
}

func (w *walletService) DecodeBase58(str string) ([]byte, error) {
	return wallet.DecodeBase58Check(str)
}

func (w *walletService) GetAddressInfo(
	ctx context.Context, address string,
) (json.RawMessage, error) {
	return w.explorer.GetAddressInfo(ctx, address)
}

// GetAccountSummary returns the address info enriched with the name of the
// account and whether it was imported.
func (w *walletService) GetAccountSummary(
	ctx context.Context, address string,
) (json.RawMessage, error) {
	info, err := w.explorer.GetAddressInfo(ctx, address)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]json.RawMessage)
	if err := json.Unmarshal(info, &summary); err != nil || summary == nil {
		return nil, explorer.ErrAPIDead
	}

	identity, ok := w.Identity(address)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	summary["name"], _ = json.Marshal(identity.Name)
	summary["isImport"], _ = json.Marshal(identity.IsImport)

	return json.Marshal(summary)
}

func (w *walletService) GetAsset(
	ctx context.Context, asset string,
) (json.RawMessage, error) {
	return w.explorer.GetAsset(ctx, asset)
}

func (w *walletService) GetBalances(
	ctx context.Context, address string, page, limit int,
) (json.RawMessage, error) {
	return w.explorer.GetBalances(ctx, address, page, limit)
}

func (w *walletService) GetMempool(
	ctx context.Context, address string, page, limit int,
) (json.RawMessage, error) {
	return w.explorer.GetMempool(ctx, address, page, limit)
}

// CreateSend builds an unsigned send from the given source, or from the
// selected account if none is given.
func (w *walletService) CreateSend(
	ctx context.Context, opts explorer.CreateSendOpts,
) (json.RawMessage, error) {
	if opts.Source == "" {
		opts.Source = w.SelectedAddress()
	}
	return w.explorer.CreateSend(ctx, opts)
}
