package ledgerapi

// Transaction is the Ledger API wire representation of a transaction.
// Amounts are signed milliunits.
type Transaction struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	Amount     int64  `json:"amount"`
	PayeeName  string `json:"payee_name"`
	Memo       string `json:"memo"`
	FlagColor  string `json:"flag_color"`
	Date       string `json:"date"`
	Deleted    bool   `json:"deleted"`
	CategoryID string `json:"category_id,omitempty"`
}

// NewTransaction is the payload for creating a transaction.
type NewTransaction struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Memo      string `json:"memo"`
	Date      string `json:"date"`
	FlagColor string `json:"flag_color,omitempty"`
	Cleared   string `json:"cleared,omitempty"`
}

type transactionsResponse struct {
	Data struct {
		Transactions    []Transaction `json:"transactions"`
		ServerKnowledge int64         `json:"server_knowledge"`
	} `json:"data"`
}

type transactionResponse struct {
	Data struct {
		Transaction Transaction `json:"transaction"`
	} `json:"data"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// FetchFilter selects which changed transactions count as unprocessed.
type FetchFilter struct {
	// ManualFlag marks transactions the user wants synced.
	ManualFlag string
	// SyncAccountID is the designated sync ledger account; transactions
	// already living there are never picked up again.
	SyncAccountID string
}

// Matches applies the unprocessed-item filter to one transaction.
func (f FetchFilter) Matches(tx Transaction) bool {
	return !tx.Deleted &&
		tx.FlagColor == f.ManualFlag &&
		tx.AccountID != f.SyncAccountID
}
