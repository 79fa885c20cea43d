// Package mapfile parses linker MAP files.
//
// A MAP file lists the segments of a module followed by its public and
// static symbols, each addressed as SEGMENT:OFFSET:
//
//	 Start         Length     Name                   Class
//	 0001:00000000 000000030H .init                  CODE
//
//	  Address         Publics by Value
//	 0001:00000000       _init_proc
//
// Segment 0 is always the PE header (0x1000 bytes). Every listed segment is
// placed after the previous ones, so a symbol resolves to the module relative
// offset SegmentStart(id) + offset.
package mapfile
