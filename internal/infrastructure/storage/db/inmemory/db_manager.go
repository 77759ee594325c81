package inmemory

import (
	"sync"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/mpurse-network/mpurse-daemon/internal/core/ports"
)

type vaultStore struct {
	vault  *domain.StoredVault
	locker *sync.Mutex
}

type repoManager struct {
	vaultRepository domain.VaultRepository
}

// NewRepoManager returns repositories that keep everything in memory and
// lose it at shutdown.
func NewRepoManager() ports.RepoManager {
	return &repoManager{
		vaultRepository: NewVaultRepositoryImpl(),
	}
}

func (d *repoManager) VaultRepository() domain.VaultRepository {
	return d.vaultRepository
}

func (d *repoManager) Close() {}
