package video

import (
	"fmt"
	"strconv"
	"strings"
)

// DimensionsKey formats the "WxH" key used in Record.Resizes.
func DimensionsKey(width, height int) string {
	return strconv.Itoa(width) + "x" + strconv.Itoa(height)
}

// ParseDimensionsKey parses a "WxH" key back into positive width and height.
func ParseDimensionsKey(key string) (int, int, error) {
	w, h, ok := strings.Cut(strings.TrimSpace(key), "x")
	if !ok {
		return 0, 0, fmt.Errorf("dimensions key %q: missing separator", key)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("dimensions key %q: width: %w", key, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("dimensions key %q: height: %w", key, err)
	}
	if err := ValidateDimensions(width, height); err != nil {
		return 0, 0, fmt.Errorf("dimensions key %q: %w", key, err)
	}
	return width, height, nil
}

// ValidateDimensions rejects non-positive sizes.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("dimensions must be positive, got %dx%d", width, height)
	}
	return nil
}
