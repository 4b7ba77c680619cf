// Package archive reads the ZIP container used by Android application
// packages.
//
// Opening an archive is trailer-anchored: FindEndRecord scans the tail of the
// source backward for the end of central directory record, the central
// directory is decoded from the range that record names, and the 24 bytes
// immediately before the directory are probed for an APK signing block footer.
//
//	src, err := archive.OpenFile("app.apk")
//	if err != nil { ... }
//	defer src.Close()
//
//	a, err := archive.OpenArchive(src, archive.OpenOptions{})
//	if err != nil { ... }
//	rc, err := a.Open("classes.dex")
//
// All reads are scoped: each range is opened for exactly the bytes it needs
// and closed before the call returns. Sources are never written.
package archive
