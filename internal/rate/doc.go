// Package rate throttles failed credential verifications with Redis-backed
// fixed-window counters, keyed per username and optionally per client IP.
// Argon2 verification is expensive; the throttle keeps a password-guessing
// client from burning CPU and from brute-forcing an account.
//
// Key prefixes:
//   - dgv:u:  — failed verifications per username
//   - dgv:ip: — failed verifications per client IP
package rate
