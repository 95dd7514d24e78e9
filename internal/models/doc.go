// Package models defines the core domain models of the ledger.
//
// # Entities
//
//   - Profile: a personal or shared ledger owning incomes, outcomes,
//     categories and debts
//   - Income / Outcome: money entering or leaving a profile
//   - Category: groups outcomes and tracks how much was spent in it
//   - Debt: a directed claim between two members of a shared profile
//   - User: an identity returned by the auth module
//
// # Design Principles
//
//  1. Amounts are integer cents (money.Cents), never floats
//  2. Relationships are ID strings, not pointers
//  3. Timestamps are Unix seconds, as stored
//  4. Balance and Spent are derived totals that only the ledger package
//     mutates, through atomic increments in the store
package models
