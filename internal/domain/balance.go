package domain

// Balance derives an account balance from its ledger entries:
// sum of credits minus sum of debits, in minor units. Order of the
// entries does not matter and an empty slice yields zero.
func Balance(entries []LedgerEntry) int64 {
	var balance int64
	for _, e := range entries {
		if e.EntryType == EntryTypeCredit {
			balance += e.Amount
		} else {
			balance -= e.Amount
		}
	}
	return balance
}
