/*
Package wallet is the transaction ledger: the only code that writes wallet
balances and wallet transactions.

Every posting is keyed by (type, source id). Posting the same key twice
returns the original transaction with Replayed set instead of moving money
again, which makes retries from callers safe.

Usage:

	ledger := wallet.NewService(repo, balanceCache, wallet.WalletConfig{Currency: "PKR"}, metrics, logger)

	res, err := ledger.Credit(ctx, wallet.PostRequest{
	    UserID:   "u-42",
	    Amount:   5000,
	    Type:     models.TxTypeTopupCredit,
	    SourceID: topupID,
	})

	_, err = ledger.VoidBySource(ctx, wallet.VoidRequest{
	    Type:     models.TxTypeTopupCredit,
	    SourceID: topupID,
	    VoidedBy: adminID,
	})

Balance changes and the transaction insert commit together. A concurrent
duplicate that loses the unique-key race is rolled back and answered as a
replay of the winner.

Error Handling:

Client errors are *errors.DomainError values from internal/errors:
wallet_invalid_amount, wallet_invalid_request, wallet_insufficient_balance,
wallet_tx_void, wallet_tx_not_found and wallet_void_insufficient_balance.
Storage failures are wrapped and returned as-is.
*/
package wallet
