package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Account is a named ledger a user can record movements against.
type Account struct {
	// Name is what the user sees in menus, e.g. "Personal".
	Name string `yaml:"name"`
	// Ledger identifies the backing ledger in the row store
	// (a worksheet tab, a BigQuery ledger key or an Azure partition).
	Ledger string `yaml:"ledger"`
}

// Accounts is the ordered list of configured accounts. Menu position i+1
// selects Accounts[i].
type Accounts []Account

// Lookup resolves a menu selector (1-based position or account name,
// case-insensitive) to an account.
func (a Accounts) Lookup(input string) (Account, bool) {
	in := strings.TrimSpace(input)
	if n, err := strconv.Atoi(in); err == nil {
		if n >= 1 && n <= len(a) {
			return a[n-1], true
		}
		return Account{}, false
	}
	for _, acc := range a {
		if strings.EqualFold(acc.Name, in) {
			return acc, true
		}
	}
	return Account{}, false
}

// ByName returns the account with the given name or ledger id.
func (a Accounts) ByName(name string) (Account, bool) {
	for _, acc := range a {
		if strings.EqualFold(acc.Name, name) || acc.Ledger == name {
			return acc, true
		}
	}
	return Account{}, false
}

// Validate checks names and ledgers are set and unique.
func (a Accounts) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	seen := make(map[string]bool, len(a))
	for i, acc := range a {
		if strings.TrimSpace(acc.Name) == "" || strings.TrimSpace(acc.Ledger) == "" {
			return fmt.Errorf("account %d: name and ledger are required", i+1)
		}
		key := strings.ToLower(acc.Name)
		if seen[key] {
			return fmt.Errorf("duplicate account name %q", acc.Name)
		}
		seen[key] = true
	}
	return nil
}
