// Package control is the thread-safe control surface (§4.3): session
// creation and teardown, wired to a single background dispatcher that
// owns all socket I/O. Every operation that creates, changes or destroys a
// session acquires the session table's lock, mutates the table or an
// individual Session, releases the lock, and then (on success) issues a
// wakeup.
package control
