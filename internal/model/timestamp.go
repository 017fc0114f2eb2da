// Package model holds the closed, arena-indexed data types LINspector's
// analyzer operates on: the log event variants, the LDF/DBC descriptions,
// the gateway map, and the finding/report shapes.
package model

// Timestamp is a monotonically non-decreasing count of seconds since trace
// start, at double precision. Comparisons against tolerances are always
// explicit; Timestamp is never compared for exact equality against a
// computed value.
type Timestamp float64

// Channel identifies a physical bus instance (e.g. "LIN1", "CAN0"). Findings
// and log entries carry a Channel so multi-channel merges stay ordered
// deterministically by (channel, timestamp, sequence).
type Channel string
