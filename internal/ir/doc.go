// Package ir provides the plain data shapes shared by every mestrack package.
//
// This package contains type definitions and small value helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the data model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Instants are time.Time in memory and Unix milliseconds on the wire
//   - All JSON tags follow the backup format (camelCase, X/Y_time/Z_time)
//   - Derived types (DayStatus, LeaveBlock) are never persisted
package ir
