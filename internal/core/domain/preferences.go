package domain

import "fmt"

const (
	// DefaultAccountName is the base of auto-generated account names.
	DefaultAccountName = "Account"
	// DefaultLang ...
	DefaultLang = "en"
)

// Identity is the UI metadata of an account.
type Identity struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	IsImport bool   `json:"isImport"`
}

// Preferences are persisted in plaintext next to the encrypted vault.
type Preferences struct {
	Identities            []Identity `json:"identities"`
	SelectedAddress       string     `json:"selectedAddress"`
	IsAdvancedModeEnabled bool       `json:"isAdvancedModeEnabled"`
	Lang                  string     `json:"lang"`
}

// NewPreferences returns empty preferences that carry over the given UI
// settings, like after a lock.
func NewPreferences(isAdvancedModeEnabled bool, lang string) *Preferences {
	return &Preferences{
		Identities:            make([]Identity, 0),
		IsAdvancedModeEnabled: isAdvancedModeEnabled,
		Lang:                  lang,
	}
}

// Copy returns a deep copy of the preferences.
func (p *Preferences) Copy() *Preferences {
	identities := make([]Identity, len(p.Identities))
	copy(identities, p.Identities)
	cp := *p
	cp.Identities = identities
	return &cp
}

// GetIdentity returns the identity of the given address, if any.
func (p *Preferences) GetIdentity(address string) (*Identity, bool) {
	for i := range p.Identities {
		if p.Identities[i].Address == address {
			identity := p.Identities[i]
			return &identity, true
		}
	}
	return nil, false
}

// HasName returns whether some identity is already named after name.
func (p *Preferences) HasName(name string) bool {
	for _, identity := range p.Identities {
		if identity.Name == name {
			return true
		}
	}
	return false
}

// ValidateName returns an error if the name is empty or already in use.
func (p *Preferences) ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if p.HasName(name) {
		return ErrDuplicateName
	}
	return nil
}

// IncrementAccountName returns "<base> <num>" with num being the first
// number, starting from the given one, that yields an unused name.
func (p *Preferences) IncrementAccountName(base string, num int) string {
	for p.HasName(fmt.Sprintf("%s %d", base, num)) {
		num++
	}
	return fmt.Sprintf("%s %d", base, num)
}

// AddIdentity registers the identity unless its address is already known.
func (p *Preferences) AddIdentity(identity Identity) bool {
	if _, ok := p.GetIdentity(identity.Address); ok {
		return false
	}
	p.Identities = append(p.Identities, identity)
	return true
}

// RemoveIdentity drops the identity of the given address.
func (p *Preferences) RemoveIdentity(address string) {
	identities := make([]Identity, 0, len(p.Identities))
	for _, identity := range p.Identities {
		if identity.Address != address {
			identities = append(identities, identity)
		}
	}
	p.Identities = identities
}

// SetName renames the identity of the given address.
func (p *Preferences) SetName(address, name string) error {
	index := -1
	for i, identity := range p.Identities {
		if identity.Address == address {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrAccountNotFound
	}
	if err := p.ValidateName(name); err != nil {
		return err
	}
	p.Identities[index].Name = name
	return nil
}
