// Package peid loads PEiD signature databases and scans images with them.
//
// The database is the plain text userdb.txt format:
//
//	; comment
//	[UPX 2.90 -> Markus Oberhumer]
//	signature = 60 BE ?? ?? ?? ?? 8D BE ?? ?? ?? ?? 57 83 CD FF
//	ep_only = true
//
// Entries marked ep_only are only tested at the image entry point. Other
// entries are searched for across the whole image and report their first
// occurrence.
package peid
