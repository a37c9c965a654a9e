// Package annotate draws detection overlays onto frames.
//
// Only detections whose class passes the configured filter are drawn. Each
// gets a rectangle outline and a "<Class>: <confidence>" label set just
// above the box's top-left corner; labels are shifted to stay inside the
// frame. Drawing mutates the frame in place and uses the fixed 7x13 bitmap
// face from golang.org/x/image, so no font files are needed at runtime.
package annotate
