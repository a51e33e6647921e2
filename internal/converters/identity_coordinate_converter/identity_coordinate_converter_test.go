package identity_coordinate_converter

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestIdentityConverter(t *testing.T) {
	c := NewIdentityCoordinateConverter()
	defer c.Cleanup()

	in := r3.Vector{X: 1.5, Y: -2, Z: 3}
	out, err := c.ConvertCoordinateSrid(3395, 3395, in)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, in)

	_, err = c.ConvertCoordinateSrid(4326, 3395, in)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EPSG:4326")
}
