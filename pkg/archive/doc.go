// Package archive reads zip archives (wheels) through a [rangeio.Source]
// while touching as few bytes as possible.
//
// # Overview
//
// A zip file is indexed by its central directory, which sits at the end of
// the file just before the end-of-central-directory record. [NewReader]
// locates that record with a single 22-byte read in the common case, then
// fetches the directory in one more read. Entry data is only read when an
// entry is opened:
//
//	src, _ := rangeio.OpenHTTP(ctx, client, url, rangeio.HTTPOptions{})
//	r, err := archive.NewReader(src)
//	if err != nil {
//	    return err
//	}
//	entry, ok := r.Find(archive.HasSuffix("/top_level.txt"))
//	if !ok {
//	    return nil
//	}
//	text, err := r.ReadText(entry)
//
// For a remote wheel this costs the directory bytes, the 30-byte local
// header and the compressed entry, regardless of how large the wheel is.
//
// # Supported Features
//
// Store (0) and deflate (8) entries are supported, as is the zip64
// extension for archives with more than 65535 entries or offsets beyond
// 4 GiB. Multi-disk archives and encryption are not.
//
// # Errors
//
// Failures carry codes from [errors]: NOT_AN_ARCHIVE when no directory end
// record exists, CORRUPT_DIRECTORY for truncated or inconsistent records
// (including checksum mismatches), UNSUPPORTED_COMPRESSION for other methods
// and INVALID_TEXT when [Reader.ReadText] finds non-UTF-8 content.
//
// [rangeio.Source]: github.com/matzehuels/wheelpeek/pkg/rangeio.Source
// [errors]: github.com/matzehuels/wheelpeek/pkg/errors
package archive
