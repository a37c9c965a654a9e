package vision

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PersonClassID is the COCO class id of "person".
const PersonClassID = 0

// cocoClasses are the 80 COCO labels in model output order.
var cocoClasses = [...]string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck",
	"boat", "traffic light", "fire hydrant", "stop sign", "parking meter", "bench",
	"bird", "cat", "dog", "horse", "sheep", "cow", "elephant", "bear", "zebra",
	"giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup",
	"fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch",
	"potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear",
	"hair drier", "toothbrush",
}

// NumClasses is the number of classes the bundled models predict.
const NumClasses = len(cocoClasses)

// ClassName returns the label for a class id, or "class_<id>" when unknown.
func ClassName(id int) string {
	if id >= 0 && id < len(cocoClasses) {
		return cocoClasses[id]
	}
	return "class_" + strconv.Itoa(id)
}

// ClassID returns the id for a label. Matching is case-insensitive.
func ClassID(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, c := range cocoClasses {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// DisplayName returns the label with its first letter upper-cased, as drawn
// on annotated frames.
func DisplayName(id int) string {
	n := ClassName(id)
	if n == "" {
		return n
	}
	return strings.ToUpper(n[:1]) + n[1:]
}

// ClassFilter is the set of class ids that are annotated and recorded.
type ClassFilter map[int]struct{}

// NewClassFilter builds a filter from class ids.
func NewClassFilter(ids ...int) ClassFilter {
	f := make(ClassFilter, len(ids))
	for _, id := range ids {
		f[id] = struct{}{}
	}
	return f
}

// DefaultClassFilter selects people only.
func DefaultClassFilter() ClassFilter {
	return NewClassFilter(PersonClassID)
}

// ParseClassFilter parses a comma-separated list of class names or numeric
// ids, e.g. "person,car" or "0,2".
func ParseClassFilter(s string) (ClassFilter, error) {
	f := ClassFilter{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			if id < 0 {
				return nil, fmt.Errorf("invalid class id %d", id)
			}
			f[id] = struct{}{}
			continue
		}
		id, ok := ClassID(part)
		if !ok {
			return nil, fmt.Errorf("unknown class %q", part)
		}
		f[id] = struct{}{}
	}
	if len(f) == 0 {
		return nil, fmt.Errorf("class filter %q selects no classes", s)
	}
	return f, nil
}

// Contains reports whether the class id passes the filter.
func (f ClassFilter) Contains(id int) bool {
	_, ok := f[id]
	return ok
}

// Equal reports whether f and g select the same classes.
func (f ClassFilter) Equal(g ClassFilter) bool {
	if len(f) != len(g) {
		return false
	}
	for id := range f {
		if !g.Contains(id) {
			return false
		}
	}
	return true
}

// Select returns the detections whose class passes the filter, preserving
// order.
func (f ClassFilter) Select(dets []Detection) []Detection {
	var out []Detection
	for _, d := range dets {
		if f.Contains(d.ClassID) {
			out = append(out, d)
		}
	}
	return out
}

// Names returns the filtered class labels in id order.
func (f ClassFilter) Names() []string {
	ids := make([]int, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = ClassName(id)
	}
	return names
}

func (f ClassFilter) String() string {
	return strings.Join(f.Names(), ",")
}
