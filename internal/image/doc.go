// Package image provides in-memory snapshots of executable modules.
//
// An Image is a contiguous byte range at a virtual base address, the shape a
// loaded module has in a debugger. Loaders build one from a file on disk:
//   - PE files are mapped section by section at ImageBase, so virtual
//     addresses line up with what a debugger shows
//   - ELF files contribute their .text section at its link address
//   - anything else is taken as a flat dump at a caller supplied base
//
// Images satisfy sigmake.Memory and are safe for concurrent reads.
package image
