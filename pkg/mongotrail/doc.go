// Package mongotrail stores the audit trail in a MongoDB collection.
package mongotrail
