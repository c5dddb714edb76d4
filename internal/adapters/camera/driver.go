//go:build !nocamera

package camera

// Registers the platform camera driver with mediadevices. Builds tagged
// nocamera enumerate no video inputs.
import _ "github.com/pion/mediadevices/pkg/driver/camera"
