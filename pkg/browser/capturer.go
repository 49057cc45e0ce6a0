package browser

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/jzx17/pagecheck/pkg/types"
	"github.com/jzx17/pagecheck/pkg/visual"
	"github.com/playwright-community/playwright-go"
)

// PageCapturer grabs frames and element bounds from a playwright page
type PageCapturer struct {
	page playwright.Page
}

var _ visual.FrameCapturer = (*PageCapturer)(nil)

// NewPageCapturer creates a capturer for page
func NewPageCapturer(page playwright.Page) *PageCapturer {
	return &PageCapturer{page: page}
}

// CaptureSurface screenshots the viewport as PNG with animations frozen
func (c *PageCapturer) CaptureSurface(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := c.page.Screenshot(playwright.PageScreenshotOptions{
		Type:       playwright.ScreenshotTypePng,
		Animations: playwright.ScreenshotAnimationsDisabled,
		Caret:      playwright.ScreenshotCaretHide,
	})
	if err != nil {
		return nil, MapError("screenshot", err)
	}
	return data, nil
}

// ElementBounds returns the bounding box of the first element matching
// selector, widened to whole pixels.
func (c *PageCapturer) ElementBounds(ctx context.Context, selector string) (image.Rectangle, error) {
	if err := ctx.Err(); err != nil {
		return image.Rectangle{}, err
	}
	op := "bounding box " + selector
	box, err := c.page.Locator(selector).First().BoundingBox()
	if err != nil {
		return image.Rectangle{}, MapError(op, err)
	}
	if box == nil {
		return image.Rectangle{}, types.NewFault(types.FaultElementNotFound, op, fmt.Errorf("%s is not visible", selector))
	}
	return toRectangle(box), nil
}

func toRectangle(box *playwright.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(box.X)),
		int(math.Floor(box.Y)),
		int(math.Ceil(box.X+box.Width)),
		int(math.Ceil(box.Y+box.Height)),
	)
}
