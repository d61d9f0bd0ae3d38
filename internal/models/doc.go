// Package models defines the core domain models for tabsettle.
//
// # Models
//
//   - Participant: a registered identity with a permanent ordinal
//   - ExpenseEntry: a recorded debt, debtor owes payer a fixed amount
//   - NetBalance: a participant's derived position for one settlement round
//   - Leg: one debtor to creditor transfer of a settlement plan
//   - Round: the outcome of one settlement invocation
//   - Snapshot: read-only view of the registry and the pending ledger
//
// # Design Principles
//
// 1. **Identities are strings**: participants are keyed by an opaque address-like identity
// 2. **Whole base units**: amounts are shopspring decimals holding whole token base units (up to 2^256-1), never floats
// 3. **Avoid circular references**: relationships use identity strings, not pointers
// 4. **Derived data is not stored**: net balances are recomputed every round
package models
