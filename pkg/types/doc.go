// Package types holds the shared data model of the gonda engine: package
// records, the installed-state and transaction types exchanged between the
// solver, planner and linker, and the filesystem capability interface.
//
// The types here are deliberately free of behavior beyond identity and
// bookkeeping helpers. Parsing lives in pkg/version and pkg/matchspec,
// decisions live in pkg/solver and pkg/plan, and mutation lives in pkg/link.
package types
