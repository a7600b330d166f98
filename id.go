package taskhub

import "github.com/xraph/taskhub/id"

// ID is the primary identifier type for taskhub entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
