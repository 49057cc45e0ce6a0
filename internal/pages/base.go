// Package pages holds page objects for the demo shop. Every browser
// interaction runs through the retry executor and surfaces typed faults.
package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/jzx17/pagecheck/pkg/browser"
	"github.com/jzx17/pagecheck/pkg/retry"
	"github.com/jzx17/pagecheck/pkg/types"
	"github.com/playwright-community/playwright-go"
)

// BasePage provides retried primitives shared by all page objects
type BasePage struct {
	page     playwright.Page
	executor *retry.RetryExecutor
	policy   retry.Policy
	baseURL  string
}

// NewBasePage creates a page object over page. Interactions use policy unless
// a method says otherwise.
func NewBasePage(page playwright.Page, executor *retry.RetryExecutor, policy retry.Policy, baseURL string) *BasePage {
	return &BasePage{
		page:     page,
		executor: executor,
		policy:   policy,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Page returns the underlying playwright page
func (p *BasePage) Page() playwright.Page {
	return p.page
}

// Navigate opens path relative to the base URL
func (p *BasePage) Navigate(ctx context.Context, path string) error {
	url := browser.ResolveURL(p.baseURL, path)
	return p.executor.Run(ctx, p.policy, func(ctx context.Context) error {
		_, err := p.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
		})
		return browser.MapError("navigate "+url, err)
	})
}

// Click clicks the first element matching selector
func (p *BasePage) Click(ctx context.Context, selector string) error {
	return p.executor.Run(ctx, p.policy, func(ctx context.Context) error {
		return browser.MapError("click "+selector, p.page.Locator(selector).First().Click())
	})
}

// Fill replaces the value of the input matching selector
func (p *BasePage) Fill(ctx context.Context, selector, value string) error {
	return p.executor.Run(ctx, p.policy, func(ctx context.Context) error {
		return browser.MapError("fill "+selector, p.page.Locator(selector).First().Fill(value))
	})
}

// Text returns the trimmed text content of selector
func (p *BasePage) Text(ctx context.Context, selector string) (string, error) {
	out, err := retry.Execute(p.executor, ctx, p.policy, func(ctx context.Context) (string, error) {
		text, err := p.page.Locator(selector).First().TextContent()
		return strings.TrimSpace(text), browser.MapError("text "+selector, err)
	}, nil)
	return out.Value, err
}

// Count returns how many elements match selector
func (p *BasePage) Count(ctx context.Context, selector string) (int, error) {
	out, err := retry.Execute(p.executor, ctx, p.policy, func(ctx context.Context) (int, error) {
		n, err := p.page.Locator(selector).Count()
		return n, browser.MapError("count "+selector, err)
	}, nil)
	return out.Value, err
}

// WaitVisible polls until selector is visible, backing off between checks. If
// it never shows up the error is an ElementNotFound fault wrapping
// retry.ErrExhausted.
func (p *BasePage) WaitVisible(ctx context.Context, selector string) error {
	op := "wait visible " + selector
	out, err := retry.Execute(p.executor, ctx, p.policy, func(ctx context.Context) (bool, error) {
		visible, err := p.page.Locator(selector).First().IsVisible()
		return visible, browser.MapError(op, err)
	}, func(visible bool) bool {
		return visible
	})
	if err != nil {
		return err
	}
	if _, err := out.Must(); err != nil {
		return types.NewFault(types.FaultElementNotFound, op, fmt.Errorf("%s not visible: %w", selector, err))
	}
	return nil
}
