package memory

import "errors"

// ErrMalformedLedger indicates the memory file contains a line the ledger
// grammar does not recognize. The file is never partially applied.
var ErrMalformedLedger = errors.New("malformed memory ledger")
