package halcyon

import "github.com/rs/xid"

// IdentityGenerator issues globally unique, roughly time-sortable account
// IDs. Issue never fails and is safe for concurrent use.
type IdentityGenerator interface {
	Issue() ID
}

// xidGenerator backs IDs with xid: a second-resolution timestamp plus a
// machine/pid discriminant and a per-tick counter, so concurrent calls on
// one instance and calls across instances stay distinct without locking.
type xidGenerator struct{}

func NewIdentityGenerator() IdentityGenerator {
	return xidGenerator{}
}

func (xidGenerator) Issue() ID {
	return ID(xid.New().String())
}

// IsValidID checks a raw id against the xid wire format. This must change
// if we ever change the id generation library.
func IsValidID(id string) bool {
	if _, err := xid.FromString(id); err != nil {
		return false
	}
	return true
}
