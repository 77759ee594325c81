package ports

import "github.com/mpurse-network/mpurse-daemon/internal/core/domain"

// RepoManager gives access to the repositories of the daemon.
type RepoManager interface {
	VaultRepository() domain.VaultRepository
	Close()
}
