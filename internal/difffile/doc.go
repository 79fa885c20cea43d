// Package difffile reads and writes IDA DIF patch files.
//
// A DIF file is a description line, a blank line, the patched module's file
// name and then one patch per line:
//
//	This difference file was created by IDA
//
//	target.exe
//	00000401: 74 EB
//
// Offsets are file offsets, not virtual addresses. Use image.FileOffsetToVA to
// place a patch in a loaded module.
package difffile
