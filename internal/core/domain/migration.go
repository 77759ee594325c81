package domain

import "github.com/mpurse-network/mpurse-daemon/pkg/wallet"

// VersionedRecord is the decrypted content of a stored vault tagged with
// the schema version it was written with.
type VersionedRecord struct {
	Version     int
	Preferences Preferences
	Data        VaultData
}

// MigrationOpts carries the in-memory values some migration steps fall back
// to.
type MigrationOpts struct {
	IsAdvancedModeEnabled bool
}

// Migrate applies, in order and once each, every step from the record's
// version up to CurrentVaultVersion. Records without version are v1.
func Migrate(
	record VersionedRecord, opts MigrationOpts,
) (VersionedRecord, error) {
	if record.Version <= 0 {
		record.Version = 1
	}
	if record.Version > CurrentVaultVersion {
		return record, ErrUnsupportedVaultVersion
	}

	for record.Version < CurrentVaultVersion {
		switch record.Version {
		case 1:
			record = MigrateV1toV2(record, opts.IsAdvancedModeEnabled)
		case 2:
			record = MigrateV2toV3(record)
		case 3:
			record = MigrateV3toV4(record)
		}
	}
	return record, nil
}

// MigrateV1toV2 introduces the advanced mode preference.
func MigrateV1toV2(record VersionedRecord, isAdvancedModeEnabled bool) VersionedRecord {
	record.Preferences.IsAdvancedModeEnabled = isAdvancedModeEnabled
	record.Version = 2
	return record
}

// MigrateV2toV3 introduces seed versions and derivation paths. Every vault
// written before was an Electrum1 one.
func MigrateV2toV3(record VersionedRecord) VersionedRecord {
	hdkey := Hdkey{}
	if record.Data.Hdkey != nil {
		hdkey = *record.Data.Hdkey
	}
	if hdkey.SeedVersion == "" {
		hdkey.SeedVersion = wallet.SeedVersionElectrum1
	}
	if hdkey.BasePath == "" {
		hdkey.BasePath = wallet.DefaultBasePath
	}
	record.Data.Hdkey = &hdkey
	record.Version = 3
	return record
}

// MigrateV3toV4 introduces the language preference.
func MigrateV3toV4(record VersionedRecord) VersionedRecord {
	if record.Preferences.Lang == "" {
		record.Preferences.Lang = DefaultLang
	}
	record.Version = 4
	return record
}
