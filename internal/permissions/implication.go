package permissions

// Apply mutates one bit of a record and cascades the implication rules,
// returning the resulting record. The input is not modified.
//
// Two invariants hold on every returned record:
//
//	write implies modify implies read, per domain triple
//	access is true iff any capability bit is true, except that a
//	direct access toggle is authoritative (full grant / full revoke)
//
// The dashboards and documents triples are independent; a mutation to
// one never touches the other.
func Apply(r Record, c Capability, value bool) Record {
	switch c {
	case CapAccess:
		// The blunt switch: everything on or everything off.
		r.Access = value
		r.DashboardsRead = value
		r.DashboardsModify = value
		r.DashboardsWrite = value
		r.DocumentsRead = value
		r.DocumentsModify = value
		r.DocumentsWrite = value
		return r
	case CapDashboardsRead:
		r.DashboardsRead = value
		if !value {
			r.DashboardsModify = false
			r.DashboardsWrite = false
		}
	case CapDashboardsModify:
		r.DashboardsModify = value
		if value {
			r.DashboardsRead = true
		} else {
			r.DashboardsWrite = false
		}
	case CapDashboardsWrite:
		r.DashboardsWrite = value
		if value {
			r.DashboardsModify = true
			r.DashboardsRead = true
		}
	case CapDocumentsRead:
		r.DocumentsRead = value
		if !value {
			r.DocumentsModify = false
			r.DocumentsWrite = false
		}
	case CapDocumentsModify:
		r.DocumentsModify = value
		if value {
			r.DocumentsRead = true
		} else {
			r.DocumentsWrite = false
		}
	case CapDocumentsWrite:
		r.DocumentsWrite = value
		if value {
			r.DocumentsModify = true
			r.DocumentsRead = true
		}
	default:
		// Values outside the enum must not reach the derived-access
		// recomputation below.
		return r
	}
	// Derived access: granting any capability opens the record,
	// clearing the last one closes it.
	if value {
		r.Access = true
	} else {
		r.Access = r.AnyCapability()
	}
	return r
}

// Consistent reports whether a record satisfies the implication
// invariants. Used by the integrity scan over stored rows; the engine
// itself can only produce consistent records. A bare-access record
// (access set, all capability bits clear) is legal: it is the state an
// explicit access grant leaves behind before capabilities are added.
func Consistent(r Record) bool {
	if r.DashboardsWrite && !r.DashboardsModify {
		return false
	}
	if r.DashboardsModify && !r.DashboardsRead {
		return false
	}
	if r.DocumentsWrite && !r.DocumentsModify {
		return false
	}
	if r.DocumentsModify && !r.DocumentsRead {
		return false
	}
	if r.AnyCapability() && !r.Access {
		return false
	}
	return true
}
