// Package storage provides the flat key/value persistence used for
// credentials, and the backends it can run on:
//
//   - Memory: process memory, for tests and short-lived clients
//   - File: a 0600 JSON file, shared by every process of the same user
//   - Redis: a shared Redis, for sessions spanning hosts
//   - Noop: the headless platform, where nothing persists
//
// Backends shared between processes are last-writer-wins; no lock is taken
// across processes. Watcher reports changes made to a File by others.
package storage
