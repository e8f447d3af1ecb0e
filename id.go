package feeledger

import "github.com/xraph/feeledger/id"

// ID is the primary identifier type for fee structures and payments.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
