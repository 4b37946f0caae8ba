// Package imagelib reads NPE firmware image libraries and locates images in
// them.
//
// Two layouts exist. The legacy layout starts with a signature word and a
// table of (size, offset, id) entries closed by an all-ones word. The stream
// layout is a sequence of (marker, id, size, body) records closed by two
// marker words. Both are detected automatically, in either byte order.
//
// # Locating Images
//
//	lib, err := imagelib.Parse("NPE-B.lib")
//	if err != nil {
//	    return err
//	}
//	m := imagelib.NewManager(lib)
//
//	id := imagelib.ImageID{Engine: npe.NPEB, Functionality: 0x01}
//	if err := m.LatestExtract(&id); err != nil {
//	    return err
//	}
//	img, err := m.Locate(id)
//
// img.Body starts with the download map of the image.
package imagelib
