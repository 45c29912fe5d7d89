// Package backup exports and restores the whole attendance state as a
// versioned JSON snapshot.
//
// The document shape is:
//
//	{
//	  "version": 1,
//	  "exportedAt": 1742472000000,
//	  "events": [{"id": "...", "type": "LEAVE", "timestamp": ..., "createdAt": ..., "updatedAt": ...}],
//	  "settings": {"X": 3, "Y_time": "09:00", "Z_time": "17:00", "updatedAt": ...}
//	}
//
// A restore is all-or-nothing. A document with a missing or zero version, or
// with missing or null events or settings, is rejected before the store is
// touched. An empty events array is a valid snapshot of an empty log.
package backup
