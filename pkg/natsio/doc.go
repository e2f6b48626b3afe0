// Package natsio connects to NATS with nats.go.
//
// The connection retries the initial dial and reconnects on its own after
// that; disconnects and reconnects are logged. Use natstrail to publish
// audit events over the connection.
package natsio
