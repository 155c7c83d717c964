// Package models defines the core domain models for SplitFair.
//
// # Entities
//
//   - User: a registered account (password or Google login)
//   - Session: one bill-splitting occasion ("trip") owned by a user
//   - Participant: a person sharing costs within a session
//   - GlobalParticipant: a user-scoped reusable participant name
//   - LineItem: one priced entry on a session's receipt
//   - Settlement: a recorded claim that a participant paid (or owes)
//     their share for a session
//
// Item-to-participant assignments are stored as a plain many-to-many edge;
// a LineItem carries its assigned participant IDs directly.
//
// # Design Principles
//
// 1. **ID strings, not pointers**: relationships reference IDs to avoid
// circular structures and keep models JSON-friendly.
// 2. **Sessions are archived, never destroyed**: history survives; only the
// aggregation views filter archived sessions out.
// 3. **Participants merge by name across sessions**: the settlement summary
// treats two participants in different sessions with the same name as the
// same real-world person. The comparison policy lives in the calculator
// package, not here.
package models
