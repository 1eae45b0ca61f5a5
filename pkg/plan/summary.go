package plan

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/arthur-debert/gonda/pkg/types"
)

// Summary renders a transaction as human-readable lines, one per operation.
func Summary(txn *types.Transaction) string {
	if txn.Empty() {
		return "nothing to do"
	}

	var b strings.Builder
	for i, op := range txn.Operations {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch op.Type {
		case types.OperationRemove:
			fmt.Fprintf(&b, "  remove   %s", op.Old.Identity())
		case types.OperationInstall:
			fmt.Fprintf(&b, "  install  %s%s", op.New.Identity(), sizeSuffix(op.New))
		case types.OperationChange:
			fmt.Fprintf(&b, "  change   %s -> %s%s",
				op.Old.Identity(), op.New.Identity(), sizeSuffix(op.New))
		}
	}
	return b.String()
}

func sizeSuffix(rec *types.PackageRecord) string {
	if rec.Size <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%s)", humanize.Bytes(uint64(rec.Size)))
}
