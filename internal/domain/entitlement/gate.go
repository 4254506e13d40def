package entitlement

// Decision is the quota gate's verdict for one request.
type Decision struct {
	Admitted bool
	Reason   string
}

// Admit decides whether the caller may run the feature. Pure function over
// the record snapshot and descriptor; it must be evaluated before any
// external generation call so that a rejection never consumes quota or
// touches a backend.
func Admit(record *Record, desc Descriptor) Decision {
	if record.Tier == TierPremium {
		return Decision{Admitted: true}
	}
	if record.Count(desc.Name) < desc.FreeMonthlyLimit {
		return Decision{Admitted: true}
	}
	return Decision{Admitted: false, Reason: "limit reached"}
}
