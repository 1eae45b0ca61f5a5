package types

// OperationType enumerates what a transaction can do to a single package.
type OperationType int

const (
	// OperationRemove deletes an installed package from the prefix.
	OperationRemove OperationType = iota

	// OperationInstall places a package that was not installed before.
	OperationInstall

	// OperationChange replaces an installed package with a different
	// record of the same name (update, downgrade or reinstall).
	OperationChange
)

func (t OperationType) String() string {
	switch t {
	case OperationRemove:
		return "remove"
	case OperationInstall:
		return "install"
	case OperationChange:
		return "change"
	default:
		return "unknown"
	}
}

// Operation is a single planned step of a transaction. Exactly one of the
// record fields is meaningful per type: Old for Remove, New for Install,
// both for Change.
type Operation struct {
	Type OperationType

	// Name is the package name the operation targets.
	Name string

	// Old is the currently installed record (Remove, Change).
	Old *PrefixRecord

	// New is the record to install (Install, Change).
	New *PackageRecord
}

// Transaction is the ordered operation list produced by the planner and
// consumed once by the linker. It is not mutated after creation.
type Transaction struct {
	// ID identifies this transaction in logs and prefix records.
	ID string

	// Operations is ordered: removals and the remove half of changes sort
	// before installs so stale files never clobber fresh ones.
	Operations []Operation
}

// Empty reports whether the transaction has nothing to do.
func (t *Transaction) Empty() bool {
	return len(t.Operations) == 0
}

// Counts returns how many removes, installs and changes the transaction
// contains, for summaries.
func (t *Transaction) Counts() (removes, installs, changes int) {
	for _, op := range t.Operations {
		switch op.Type {
		case OperationRemove:
			removes++
		case OperationInstall:
			installs++
		case OperationChange:
			changes++
		}
	}
	return removes, installs, changes
}
