package pkg

import (
	"path/filepath"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/octree/grid_tree"
)

// LAS point formats carrying RGB values
var rgbPointFormats = map[byte]bool{2: true, 3: true, 5: true, 7: true, 8: true, 10: true}

// Reads the given las file and adds its points to the tree. Returns the
// number of points read.
func readLas(filePath string, srid int, eightBitColors bool, tree *grid_tree.GridTree) (n int, err error) {
	lf, err := lidario.NewLasFile(filePath, "r")
	if err != nil {
		return 0, errors.Wrapf(err, "cannot open las file %s", filePath)
	}
	defer func() {
		err = multierr.Append(err, errors.Wrapf(lf.Close(), "cannot close las file %s", filePath))
	}()

	hasColor := rgbPointFormats[lf.Header.PointFormatID]
	glog.Infof("las file %s: %d points, point format %d", filepath.Base(filePath), lf.Header.NumberPoints, lf.Header.PointFormatID)

	for i := 0; i < lf.Header.NumberPoints; i++ {
		lp, err := lf.LasPoint(i)
		if err != nil {
			return n, errors.Wrapf(err, "cannot read point %d of %s", i, filePath)
		}
		pd := lp.PointData()
		p := data.Point{
			Position:  r3.Vector{X: pd.X, Y: pd.Y, Z: pd.Z},
			Intensity: float32(pd.Intensity),
		}
		if rgb := lp.RgbData(); hasColor && rgb != nil {
			p.Color.R = colorComponent(rgb.Red, eightBitColors)
			p.Color.G = colorComponent(rgb.Green, eightBitColors)
			p.Color.B = colorComponent(rgb.Blue, eightBitColors)
			p.Color.A = 255
			p.HasColor = true
		}
		if err := tree.AddPoint(p, srid); err != nil {
			return n, errors.Wrapf(err, "point %d of %s", i, filePath)
		}
		n++
	}
	return n, nil
}

func colorComponent(v uint16, eightBit bool) uint8 {
	if eightBit {
		return uint8(v)
	}
	return uint8(v / 256)
}
