package domain

import (
	"errors"

	"github.com/mpurse-network/mpurse-daemon/pkg/wallet"
)

var (
	// ErrUnlockFailed is returned when the password doesn't match the
	// checksum of the stored vault.
	ErrUnlockFailed = errors.New("Unlock Failed")
	// ErrNotLoggedIn is returned for operations that require an unlocked
	// session.
	ErrNotLoggedIn = errors.New("Not Logged In.")
	// ErrEmptyName ...
	ErrEmptyName = errors.New("The account name is empty")
	// ErrDuplicateName ...
	ErrDuplicateName = errors.New("The account name is a duplicate")
	// ErrDuplicateKey is returned when importing a key already held by an
	// account.
	ErrDuplicateKey = errors.New(
		"The account you are trying to import is a duplicate",
	)
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("Account Not Found")
	// ErrLastAccount is returned when trying to remove the only account left.
	ErrLastAccount = errors.New("The last account can not be removed")
	// ErrRequestNotFound ...
	ErrRequestNotFound = errors.New("Request Not Found")
	// ErrUserCancelled is delivered to pages whose request has been
	// cancelled.
	ErrUserCancelled = errors.New("User Cancelled")
	// ErrUnknown is delivered to pages whose request failed without an
	// explicit error.
	ErrUnknown = errors.New("Unknown Error")
	// ErrUnknownMessageType ...
	ErrUnknownMessageType = errors.New("Unknown message type")
	// ErrInvalidRequestID ...
	ErrInvalidRequestID = errors.New("request id must be a number or a string")
	// ErrMalformedMessage ...
	ErrMalformedMessage = errors.New("malformed message")
	// ErrUnsupportedVaultVersion is returned when loading a record written by
	// a newer version.
	ErrUnsupportedVaultVersion = errors.New("unsupported vault version")
	// ErrVaultNotFound ...
	ErrVaultNotFound = errors.New("vault not found")

	// ErrUnsupportedSeedVersion ...
	ErrUnsupportedSeedVersion = wallet.ErrUnsupportedSeedVersion
	// ErrInvalidEncoding ...
	ErrInvalidEncoding = wallet.ErrInvalidEncoding
	// ErrUnknownScriptType ...
	ErrUnknownScriptType = wallet.ErrUnknownScriptType
)
