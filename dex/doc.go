// Package dex reads, edits and rewrites Dalvik executable files.
//
// A file is a SectionList: the header followed by one Section per map_list
// entry, in file order. Items refer to each other through reference cells.
// ItemIndexReference holds an index into an id section and OffsetReference
// holds the file offset of a data item. Cells resolve lazily and then track
// the item rather than the number, so edits that renumber or move items are
// written back by DexFile.Refresh.
//
// Refresh resolves every reference, writes back indices and offsets, lays
// the sections out again until no item moves, rebuilds the map list and the
// header, and stamps the SHA-1 signature and adler32 checksum. Writing a file
// that was edited but not refreshed fails with types.ErrNotRefreshed.
//
// Index sections keep their order across a refresh. Indices embedded in
// bytecode, debug info and catch handlers are not rewritten, so removing
// items from an index section leaves those stale.
package dex
