package courseprice

import "github.com/xraph/courseprice/id"

// ID identifies quotes and computation scopes.
type ID = id.ID

// Prefix identifies the kind of object encoded in a TypeID.
type Prefix = id.Prefix
