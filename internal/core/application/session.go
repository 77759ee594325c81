package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/btcsuite/btcd/chaincfg"
	mapset "github.com/deckarep/golang-set"
	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
	log "github.com/sirupsen/logrus"
)

// SessionOpts is the struct given to NewSession.
type SessionOpts struct {
	Network    *chaincfg.Params
	Repository domain.VaultRepository
	Notifier   ports.Notifier
}

func (o SessionOpts) validate() error {
	if o.Repository == nil {
		return ErrNullRepository
	}
	return nil
}

// SaveNewPassphraseOpts is the struct given to Session.SaveNewPassphrase.
type SaveNewPassphraseOpts struct {
	Passphrase  string
	SeedVersion wallet.SeedVersion
	BasePath    string
	BaseName    string
}

// Session is the wallet state of the daemon: unlock status, password,
// keyring and preferences, plus the pages connected and the requests they
// are waiting for. Every operation is serialized by a single lock, the
// pending requests side shares it with the Broker.
type Session struct {
	lock       *sync.Mutex
	network    *chaincfg.Params
	repository domain.VaultRepository
	notifier   ports.Notifier
	executor   requestExecutor

	isUnlocked  bool
	password    *memguard.Enclave
	preferences *domain.Preferences
	keyring     *domain.Keyring

	approvedOrigins mapset.Set
	requests        *domain.RequestQueue
	channels        map[string]*pageChannel
}

// NewSession returns a locked session with empty preferences.
func NewSession(opts SessionOpts) (*Session, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	net := opts.Network
	if net == nil {
		net = &wallet.MainNetParams
	}

	return &Session{
		lock:            &sync.Mutex{},
		network:         net,
		repository:      opts.Repository,
		notifier:        opts.Notifier,
		preferences:     domain.NewPreferences(false, ""),
		keyring:         domain.NewKeyring(net),
		approvedOrigins: mapset.NewThreadUnsafeSet(),
		requests:        domain.NewRequestQueue(),
		channels:        make(map[string]*pageChannel),
	}, nil
}

// Network ...
func (s *Session) Network() *chaincfg.Params {
	return s.network
}

// IsUnlocked ...
func (s *Session) IsUnlocked() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.isUnlocked
}

// SelectedAddress returns the address of the account pages interact with.
func (s *Session) SelectedAddress() string {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.preferences.SelectedAddress
}

// Identities returns the UI metadata of every account.
func (s *Session) Identities() []domain.Identity {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.preferences.Copy().Identities
}

// Identity ...
func (s *Session) Identity(address string) (*domain.Identity, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.preferences.GetIdentity(address)
}

// Unlock opens the stored vault with the given password. If no vault
// exists yet, the password is only kept for the upcoming SaveNewPassphrase.
// Vaults written by older versions are migrated and saved back right away.
func (s *Session) Unlock(ctx context.Context, password string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	stored, err := s.repository.GetVault(ctx)
	if err != nil && !errors.Is(err, domain.ErrVaultNotFound) {
		return err
	}
	if !stored.HasVault() {
		s.setPassword(password)
		return nil
	}

	record, err := stored.Open(password)
	if err != nil {
		if !errors.Is(err, domain.ErrUnlockFailed) {
			log.WithError(err).Warn("failed to open vault")
		}
		s.resetPassword()
		return domain.ErrUnlockFailed
	}

	migrated, err := domain.Migrate(*record, domain.MigrationOpts{
		IsAdvancedModeEnabled: s.preferences.IsAdvancedModeEnabled,
	})
	if err != nil {
		s.resetPassword()
		return err
	}

	s.setPassword(password)
	s.isUnlocked = true
	s.preferences = migrated.Preferences.Copy()
	hdkey := migrated.Data.Hdkey
	if err := s.createKeyring(keyringArgs{
		mnemonic:         hdkey.Mnemonic,
		seedVersion:      hdkey.SeedVersion,
		basePath:         hdkey.BasePath,
		numberOfAccounts: hdkey.NumberOfAccounts,
		privateKeys:      migrated.Data.PrivateKeys,
	}); err != nil {
		s.lockWallet()
		return err
	}

	if record.Version < domain.CurrentVaultVersion ||
		wallet.IsLegacyChecksum(stored.Vault.Checksum) ||
		wallet.IsLegacyCypherText(stored.Vault.Data) {
		if err := s.saveState(ctx); err != nil {
			log.WithError(err).Warn("failed to upgrade stored vault")
		} else {
			log.Debugf("vault upgraded from version %d", record.Version)
		}
	}
	return nil
}

// Lock wipes every secret from memory, cancels all pending requests and
// revokes the approvals granted to origins. UI settings are kept.
func (s *Session) Lock() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.lockWallet()
}

// SaveNewPassphrase creates a keyring with a single account from the given
// mnemonic and persists it encrypted with the password given to the
// previous Unlock.
func (s *Session) SaveNewPassphrase(
	ctx context.Context, opts SaveNewPassphraseOpts,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	wasUnlocked := s.isUnlocked
	if s.password != nil {
		s.isUnlocked = true
	}
	basePath := opts.BasePath
	if basePath == "" {
		basePath = wallet.DefaultBasePath
	}

	identities := s.preferences.Identities
	s.preferences.Identities = make([]domain.Identity, 0)
	if err := s.createKeyring(keyringArgs{
		mnemonic:         opts.Passphrase,
		seedVersion:      opts.SeedVersion,
		basePath:         basePath,
		numberOfAccounts: 1,
		baseName:         opts.BaseName,
	}); err != nil {
		s.preferences.Identities = identities
		s.isUnlocked = wasUnlocked
		return err
	}
	return s.saveState(ctx)
}

// Passphrase returns the mnemonic of the keyring if password matches,
// an empty string otherwise.
func (s *Session) Passphrase(password string) string {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.checkPassword(password) {
		return ""
	}
	return s.keyring.Mnemonic()
}

// Hdkey returns the HD metadata of the keyring if password matches.
func (s *Session) Hdkey(password string) *domain.Hdkey {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.checkPassword(password) {
		return nil
	}
	hdkey := s.keyring.Hdkey()
	return &hdkey
}

// PrivateKey returns the WIF of the account with the given address if
// password matches.
func (s *Session) PrivateKey(password, address string) string {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.checkPassword(password) {
		return ""
	}
	return s.keyring.GetPrivateKey(address)
}

// CreateAccount derives the next HD account, names it and selects it.
func (s *Session) CreateAccount(
	ctx context.Context, name string,
) (*domain.Identity, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.isUnlocked {
		return nil, domain.ErrNotLoggedIn
	}
	if err := s.preferences.ValidateName(name); err != nil {
		return nil, err
	}

	account, err := s.keyring.AddAccount()
	if err != nil {
		return nil, err
	}
	// The derived address may be already held as an imported key. The
	// counter has moved on anyway, so it's persisted before failing.
	if _, ok := s.preferences.GetIdentity(account.Address); ok {
		if err := s.saveState(ctx); err != nil {
			return nil, err
		}
		return nil, domain.ErrDuplicateKey
	}
	return s.addIdentity(ctx, account, name)
}

// ImportAccount adds the account of the given WIF, names it and selects it.
func (s *Session) ImportAccount(
	ctx context.Context, wif, name string,
) (*domain.Identity, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.isUnlocked {
		return nil, domain.ErrNotLoggedIn
	}
	if err := s.preferences.ValidateName(name); err != nil {
		return nil, err
	}

	found, err := s.keyring.ContainsPrivateKey(wif)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, domain.ErrDuplicateKey
	}

	account, err := s.keyring.ImportAccount(wif)
	if err != nil {
		return nil, err
	}
	return s.addIdentity(ctx, account, name)
}

// RemoveAccount drops the account with the given address. If it was the
// selected one, the first remaining account is selected.
func (s *Session) RemoveAccount(ctx context.Context, address string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.isUnlocked {
		return domain.ErrNotLoggedIn
	}
	if err := s.keyring.RemoveAccount(address); err != nil {
		return err
	}

	s.preferences.RemoveIdentity(address)
	if s.preferences.SelectedAddress == address {
		s.changeAddress(s.keyring.GetAccounts()[0].Address)
	}
	return s.saveState(ctx)
}

// SetAccountName renames the account with the given address.
func (s *Session) SetAccountName(
	ctx context.Context, address, name string,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.isUnlocked {
		return domain.ErrNotLoggedIn
	}
	if err := s.preferences.SetName(address, name); err != nil {
		return err
	}
	return s.saveState(ctx)
}

// SetSelectedAddress selects the account pages interact with. Switching
// account cancels every pending request.
func (s *Session) SetSelectedAddress(ctx context.Context, address string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.isUnlocked {
		return domain.ErrNotLoggedIn
	}
	if _, ok := s.preferences.GetIdentity(address); !ok {
		return domain.ErrAccountNotFound
	}

	s.changeAddress(address)
	return s.saveState(ctx)
}

// IncrementAccountName returns the first unused "<base> <n>" name with n
// starting from num.
func (s *Session) IncrementAccountName(base string, num int) string {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.preferences.IncrementAccountName(base, num)
}

// IsAdvancedModeEnabled ...
func (s *Session) IsAdvancedModeEnabled() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.preferences.IsAdvancedModeEnabled
}

// SetAdvancedMode toggles the advanced mode. While locked, only the stored
// preferences are patched.
func (s *Session) SetAdvancedMode(ctx context.Context, enabled bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.preferences.IsAdvancedModeEnabled = enabled
	if s.isUnlocked {
		return s.saveState(ctx)
	}
	return s.repository.UpdatePreferences(
		ctx, func(p *domain.Preferences) (*domain.Preferences, error) {
			p.IsAdvancedModeEnabled = enabled
			return p, nil
		},
	)
}

// Lang returns the UI language. The stored preferences win over the
// in-memory ones, so that it's known even before unlocking.
func (s *Session) Lang(ctx context.Context) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	stored, err := s.repository.GetVault(ctx)
	if err != nil && !errors.Is(err, domain.ErrVaultNotFound) {
		return "", err
	}
	if stored != nil && stored.Preferences != nil {
		if stored.Preferences.Lang != "" {
			return stored.Preferences.Lang, nil
		}
		return domain.DefaultLang, nil
	}
	if s.preferences.Lang == "" {
		return domain.DefaultLang, nil
	}
	return s.preferences.Lang, nil
}

// SetLang sets the UI language. While locked, only the stored preferences
// are patched.
func (s *Session) SetLang(ctx context.Context, lang string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.preferences.Lang = lang
	if s.isUnlocked {
		return s.saveState(ctx)
	}
	return s.repository.UpdatePreferences(
		ctx, func(p *domain.Preferences) (*domain.Preferences, error) {
			p.Lang = lang
			return p, nil
		},
	)
}

// ExistsVault returns whether a wallet has been registered.
func (s *Session) ExistsVault(ctx context.Context) (bool, error) {
	stored, err := s.repository.GetVault(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrVaultNotFound) {
			return false, nil
		}
		return false, err
	}
	return stored.HasVault(), nil
}

// PurgeAll deletes the stored vault and locks the wallet.
func (s *Session) PurgeAll(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.repository.PurgeVault(ctx); err != nil {
		return err
	}
	s.lockWallet()
	return nil
}

func (s *Session) selectedAccount() (*domain.Account, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.isUnlocked {
		return nil, domain.ErrNotLoggedIn
	}
	return s.keyring.GetAccount(s.preferences.SelectedAddress)
}

type keyringArgs struct {
	mnemonic         string
	seedVersion      wallet.SeedVersion
	basePath         string
	numberOfAccounts int
	privateKeys      []string
	baseName         string
}

// createKeyring replaces the keyring and gives a name to every account
// that has none. The session is left untouched in case of failure.
func (s *Session) createKeyring(args keyringArgs) error {
	keyring := domain.NewKeyring(s.network)
	if err := keyring.Initialize(domain.InitKeyringOpts{
		Mnemonic:         args.mnemonic,
		SeedVersion:      args.seedVersion,
		BasePath:         args.basePath,
		NumberOfAccounts: args.numberOfAccounts,
		PrivateKeys:      args.privateKeys,
	}); err != nil {
		return err
	}
	s.keyring = keyring

	baseName := args.baseName
	if baseName == "" {
		baseName = domain.DefaultAccountName
	}
	accounts := keyring.GetAccounts()
	for _, account := range accounts {
		if _, ok := s.preferences.GetIdentity(account.Address); ok {
			continue
		}
		s.preferences.AddIdentity(domain.Identity{
			Address: account.Address,
			Name: s.preferences.IncrementAccountName(
				baseName, len(s.preferences.Identities)+1,
			),
			IsImport: account.IsImported(),
		})
	}

	if _, err := keyring.GetAccount(s.preferences.SelectedAddress); err != nil &&
		len(accounts) > 0 {
		s.changeAddress(accounts[0].Address)
	}
	s.broadcastLoginState()
	return nil
}

func (s *Session) addIdentity(
	ctx context.Context, account *domain.Account, name string,
) (*domain.Identity, error) {
	identity := domain.Identity{
		Address:  account.Address,
		Name:     name,
		IsImport: account.IsImported(),
	}
	s.preferences.AddIdentity(identity)
	s.changeAddress(account.Address)
	if err := s.saveState(ctx); err != nil {
		return nil, err
	}
	return &identity, nil
}

// saveState persists preferences and keyring. A locked session cannot be
// saved, any leftover state is wiped instead.
func (s *Session) saveState(ctx context.Context) error {
	if !s.isUnlocked {
		s.resetPreferences()
		s.resetKeyring()
		return domain.ErrNotLoggedIn
	}

	password, _ := s.getPassword()
	stored, err := domain.NewStoredVault(
		s.preferences, s.keyring.Serialize(), password,
	)
	if err != nil {
		return err
	}
	return s.repository.SaveVault(ctx, stored)
}

func (s *Session) changeAddress(address string) {
	if s.preferences.SelectedAddress == address {
		return
	}

	s.cancelAllRequests()
	s.preferences.SelectedAddress = address
	s.broadcastAddressState()
}

func (s *Session) lockWallet() {
	s.resetPreferences()
	s.resetKeyring()
	s.resetPassword()
	s.cancelAllRequests()
	s.approvedOrigins.Clear()
}

func (s *Session) resetPreferences() {
	s.preferences = domain.NewPreferences(
		s.preferences.IsAdvancedModeEnabled, s.preferences.Lang,
	)
	s.broadcastAddressState()
}

func (s *Session) resetKeyring() {
	s.keyring = domain.NewKeyring(s.network)
}

func (s *Session) resetPassword() {
	s.isUnlocked = false
	s.password = nil
	s.broadcastLoginState()
}

func (s *Session) setPassword(password string) {
	if len(password) <= 0 {
		s.password = nil
		return
	}
	s.password = memguard.NewEnclave([]byte(password))
}

func (s *Session) getPassword() (string, bool) {
	if s.password == nil {
		return "", false
	}
	buf, err := s.password.Open()
	if err != nil {
		log.WithError(err).Warn("failed to open password enclave")
		return "", false
	}
	defer buf.Destroy()

	return string(buf.Bytes()), true
}

func (s *Session) checkPassword(password string) bool {
	current, ok := s.getPassword()
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(current), []byte(password)) == 1
}

func (s *Session) broadcastLoginState() {
	s.broadcast(domain.NewLoginStateMessage(s.isUnlocked))
	s.notify(ports.EventLoginStateChanged, domain.LoginStatePayload{
		IsUnlocked: s.isUnlocked,
	})
}

func (s *Session) broadcastAddressState() {
	address := s.preferences.SelectedAddress
	s.broadcast(domain.NewAddressStateMessage(address))
	s.notify(ports.EventAddressChanged, domain.AddressStatePayload{
		Address: address,
	})
}

func (s *Session) notify(eventType ports.UIEventType, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ports.UIEvent{Type: eventType, Data: data})
}
