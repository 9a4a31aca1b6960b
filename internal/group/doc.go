// Package group implements the group membership synchronization engine for a
// scene server process.
//
// Scene servers never talk to each other. Every membership mutation is written
// to the shared store together with an update-log row; every process polls the
// update log on a fixed cadence for the groups it has locally connected
// members in, re-reads the authoritative roster and corrects its local state.
// Cross-process propagation is therefore bounded by the pump interval and the
// whole design is eventually consistent by intent.
//
// A single Engine implements both group kinds; the differences between
// parties and guilds (capacity, ranks, naming, authorization) live in Policy.
// All engine state is owned by the Runner goroutine and is accessed without
// locks.
package group
