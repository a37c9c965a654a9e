// Package video decodes source videos into frames and encodes annotated
// frames into the intermediate container, both through OpenCV (gocv).
//
// Capture is the frame source: opening decodes the first frame eagerly so a
// container with no readable frames is rejected up front, then frames are
// produced lazily, one per Next call, until io.EOF. Writer is the frame sink:
// it accepts each frame exactly once in index order and finalizes the file
// on Close.
//
// Frames cross the package boundary as *image.RGBA; MatFromRGBA and
// RGBAFromMat convert to and from OpenCV's BGR layout.
package video
