package fleet

import (
	"errors"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

type ViewportState struct {
	Bounds orb.Bound
	Zoom   int
}

// WorldViewport covers every valid WGS84 coordinate
func WorldViewport() ViewportState {
	return ViewportState{
		Bounds: BoundFromBBox([4]float64{-180, -90, 180, 90}),
		Zoom:   3,
	}
}

// BoundFromBBox converts [west, south, east, north] into an orb.Bound
func BoundFromBBox(bbox [4]float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{bbox[0], bbox[1]},
		Max: orb.Point{bbox[2], bbox[3]},
	}
}

func BBoxFromBound(bound orb.Bound) [4]float64 {
	return [4]float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()}
}

// ParseBounds parses "west,south,east,north"
func ParseBounds(bounds string) (orb.Bound, error) {
	if bounds == "" {
		return orb.Bound{}, errors.New("Bounds must be provided")
	}

	boundsSplit := strings.Split(bounds, ",")
	if len(boundsSplit) != 4 {
		return orb.Bound{}, errors.New("Bounds must contain 4 co-ordinates")
	}

	var bbox [4]float64
	for i, value := range boundsSplit {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return orb.Bound{}, errors.New("Bounds co-ordinates must be numbers")
		}
		bbox[i] = parsed
	}

	if bbox[1] > bbox[3] {
		return orb.Bound{}, errors.New("Bounds south must not be greater than north")
	}

	return BoundFromBBox(bbox), nil
}
