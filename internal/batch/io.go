package batch

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/jzx17/pagecheck/pkg/visual"
)

func readPNG(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := visual.DecodePNG(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func writeDiff(path string, actual, baseline image.Image) error {
	mask, err := visual.DiffMask(actual, baseline)
	if err != nil {
		return err
	}
	data, err := visual.EncodePNG(mask)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
