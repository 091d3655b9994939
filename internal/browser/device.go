package browser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// ErrUnknownDevice is returned when a device name is not in the playwright registry.
var ErrUnknownDevice = errors.New("unknown device")

// LookupDevice finds a device profile by name. The match is exact first and
// then case-insensitive, so "iphone 11" resolves to "iPhone 11".
func LookupDevice(registry map[string]*playwright.DeviceDescriptor, name string) (*playwright.DeviceDescriptor, error) {
	if d, ok := registry[name]; ok && d != nil {
		return d, nil
	}
	for key, d := range registry {
		if d != nil && strings.EqualFold(key, name) {
			return d, nil
		}
	}

	var similar []string
	needle := strings.ToLower(strings.Fields(name + " x")[0])
	for key := range registry {
		if strings.Contains(strings.ToLower(key), needle) {
			similar = append(similar, key)
		}
	}
	sort.Strings(similar)
	if len(similar) > 5 {
		similar = similar[:5]
	}
	if len(similar) > 0 {
		return nil, fmt.Errorf("%w %q (similar: %s)", ErrUnknownDevice, name, strings.Join(similar, ", "))
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownDevice, name)
}

// ContextOptions turns a device profile into browser context options:
// viewport, screen, user agent, scale factor, mobile and touch emulation.
func ContextOptions(d *playwright.DeviceDescriptor) playwright.BrowserNewContextOptions {
	return playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(d.UserAgent),
		Viewport:          d.Viewport,
		Screen:            d.Screen,
		DeviceScaleFactor: playwright.Float(d.DeviceScaleFactor),
		IsMobile:          playwright.Bool(d.IsMobile),
		HasTouch:          playwright.Bool(d.HasTouch),
	}
}

// SortedDeviceNames returns the registry keys in alphabetical order.
func SortedDeviceNames(registry map[string]*playwright.DeviceDescriptor) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
