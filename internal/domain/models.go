package domain

// Enumerations
const (
	LedgerProduced   LedgerKind = "produced"
	LedgerSentToShop LedgerKind = "sentToShop"
	LedgerSold       LedgerKind = "sold"

	AreaWarehouse      = "Warehouse"
	AreaSentToShop     = "Sent to Shop"
	AreaShop           = "Shop"
	AreaManageProducts = "Manage Products"

	HistoryTypeProduced       = "Produced"
	HistoryTypeSent           = "Sent"
	HistoryTypeShop           = "Shop"
	HistoryTypeManageProducts = "manageProducts"
)

type LedgerKind string

// LedgerKinds lists the ledgers in display order.
var LedgerKinds = []LedgerKind{LedgerProduced, LedgerSentToShop, LedgerSold}

// ActivityEntry is one row of a ledger. Qty may be negative for corrections.
type ActivityEntry struct {
	ID      string `json:"id,omitempty"`
	Date    string `json:"date"`
	Product string `json:"product"`
	Qty     int    `json:"qty"`
}

// PlannedEntry is the resolved plan for one product.
type PlannedEntry struct {
	Planned float64 `json:"planned"`
	Active  bool    `json:"active"`
}

type HistoryEntry struct {
	ID      string `json:"id,omitempty"`
	TS      string `json:"ts,omitempty"`
	Date    string `json:"date"`
	Type    string `json:"type"`
	Action  string `json:"action,omitempty"`
	Product string `json:"product"`
	Notes   string `json:"notes,omitempty"`
	Area    string `json:"area,omitempty"`
	Qty     *int   `json:"qty,omitempty"`
}

type ProductSummary struct {
	Product        string  `json:"product"`
	DateModified   string  `json:"dateModified"`
	Planned        float64 `json:"planned"`
	Produced       int     `json:"produced"`
	SentToShop     int     `json:"sentToShop"`
	Sold           int     `json:"sold"`
	Net            int     `json:"net"`
	AheadBehind    float64 `json:"aheadBehind"`
	Status         string  `json:"status"`
	StatusColor    string  `json:"statusColor"`
	ProgressStatus string  `json:"progressStatus"`
	ProgressClass  string  `json:"progressClass"`
}

type Totals struct {
	Planned     float64 `json:"planned"`
	Produced    int     `json:"produced"`
	SentToShop  int     `json:"sentToShop"`
	Sold        int     `json:"sold"`
	Net         int     `json:"net"`
	AheadBehind float64 `json:"aheadBehind"`
}

type Summary struct {
	Totals    Totals                    `json:"totals"`
	ByProduct map[string]ProductSummary `json:"byProduct"`
}

// LedgerRecord pairs an entry with the ledger it belongs to.
type LedgerRecord struct {
	Kind  LedgerKind
	Entry ActivityEntry
}

// Valid reports whether k names one of the three ledgers.
func (k LedgerKind) Valid() bool {
	switch k {
	case LedgerProduced, LedgerSentToShop, LedgerSold:
		return true
	}
	return false
}
