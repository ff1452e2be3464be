package shared

import "fmt"

// LedgerScanLockKey builds the redis key guarding the ledger integrity scan
// so overlapping workers skip instead of double-scanning an entity.
func LedgerScanLockKey(entityID int64) string {
	return fmt.Sprintf("books:entity:%d:ledger-scan:lock", entityID)
}
