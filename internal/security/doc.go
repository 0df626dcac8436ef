// Package security derives a deployment posture report from wrapper
// configuration: whether the audit pipeline is live, whether an admin
// identity exists, which throttles are active, and which limits are left
// unbounded.
//
// # What this package must NOT do
//
//   - Read configuration itself; callers pass a flattened ReportInput.
//   - Enforce anything. The report is informational.
package security
