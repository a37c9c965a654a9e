// Package media produces still images from pipeline runs.
//
// PosterWriter observes a run, keeps the annotated frame with the most
// drawn boxes (the first frame when nothing was drawn) and saves it as a
// small JPEG poster next to the result video once the run is done.
package media
