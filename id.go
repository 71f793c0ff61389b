package demurrage

import "github.com/xraph/demurrage/id"

// ID is the identifier type for persisted demurrage records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
