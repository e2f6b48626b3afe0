// Package searchtrail stores the audit trail in an OpenSearch index, one
// document per event keyed by the event uid.
package searchtrail
