package model

import "github.com/google/uuid"

// Principal is the authenticated author identity extracted from the access
// token. Permission checks happen upstream; the ledger only records who acted.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}
