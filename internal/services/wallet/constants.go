package wallet

const (
	DefaultCurrency = "PKR"
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Operation names used in metrics and logs.
const (
	opCredit = "credit"
	opDebit  = "debit"
	opVoid   = "void"
)
