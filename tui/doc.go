// Package tui provides the terminal front end: bubbletea models for the login
// form, the OTP registration form, the forgot-password modal, and a KPI
// dashboard.
//
// Models only render and forward input. All rules (lockout, OTP gating,
// autocompletion, stale responses) live in the erpauth form types; network
// calls run as tea.Cmds and their results come back as messages.
package tui
