package ledger

import "errors"

// Set of error variables for transaction handling.
var (
	ErrInvalidTx = errors.New("invalid transaction")
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("transaction already exists")
	ErrSpent     = errors.New("output already spent")
)
