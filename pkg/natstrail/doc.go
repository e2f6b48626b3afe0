// Package natstrail broadcasts audit events over NATS so other instances
// can react to mutations, for example by dropping cached features.
package natstrail
