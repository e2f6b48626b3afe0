// Package redisstore persists features and properties in Redis hashes.
//
// Each collection lives in one hash named "<prefix>:<collection>" whose
// fields are entity uids and whose values are JSON documents. Writes are
// single commands, so they are atomic per entity; read-modify-write
// sequences issued by the stores are not.
package redisstore
