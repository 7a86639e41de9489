package overlap

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/dhconnelly/rtreego"

	"github.com/dpup/postarit/internal/lib/geo"
)

// minExtent pads degenerate (zero width or height) bounds so they can be indexed.
const minExtent = 1e-9

// indexedArea is a postal area's bounding box in the spatial index
type indexedArea struct {
	position int
	rect     rtreego.Rect
}

// Bounds implements rtreego.Spatial
func (a *indexedArea) Bounds() rtreego.Rect {
	return a.rect
}

// areaIndex is an R-tree over postal-area bounding boxes
type areaIndex struct {
	tree *rtreego.Rtree
}

func newAreaIndex(areas []geo.Feature) (*areaIndex, error) {
	tree := rtreego.NewTree(2, 25, 50)
	for i, area := range areas {
		rect, err := toRect(area.Geometry.Bounds())
		if err != nil {
			return nil, err
		}
		tree.Insert(&indexedArea{position: i, rect: rect})
	}
	return &areaIndex{tree: tree}, nil
}

// candidates returns the input positions of areas whose bounds overlap b, in
// input order.
func (idx *areaIndex) candidates(b *geom.Bounds) ([]int, error) {
	rect, err := toRect(b)
	if err != nil {
		return nil, err
	}

	hits := idx.tree.SearchIntersect(rect)
	positions := make([]int, 0, len(hits))
	for _, hit := range hits {
		positions = append(positions, hit.(*indexedArea).position)
	}
	sort.Ints(positions)
	return positions, nil
}

func toRect(b *geom.Bounds) (rtreego.Rect, error) {
	maxX, maxY := b.Max.X, b.Max.Y
	if maxX-b.Min.X < minExtent {
		maxX = b.Min.X + minExtent
	}
	if maxY-b.Min.Y < minExtent {
		maxY = b.Min.Y + minExtent
	}
	return rtreego.NewRectFromPoints(rtreego.Point{b.Min.X, b.Min.Y}, rtreego.Point{maxX, maxY})
}
